package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return t0.Add(d)
}

func fail(d time.Duration, weight int) models.ExerciseSubmission {
	return models.ExerciseSubmission{ExerciseID: 11, UserID: 1, Timestamp: at(d), Weight: weight}
}

func pass(d time.Duration) models.ExerciseSubmission {
	return models.ExerciseSubmission{ExerciseID: 11, UserID: 1, Timestamp: at(d), Passed: true, Weight: 1}
}

func TestExercisePoints(t *testing.T) {
	ex := models.Exercise{ID: 11, LabID: 1, Number: 1, Mandatory: true, BasePoints: 100, PenaltyPoints: 20}
	w := &Window{Start: t0, End: at(2 * time.Hour)}

	testCases := []struct {
		name       string
		subs       []models.ExerciseSubmission
		window     *Window
		passed     bool
		points     int
		validTries int
	}{
		{
			name:       "Fail then pass inside window",
			subs:       []models.ExerciseSubmission{fail(10*time.Minute, 1), pass(20 * time.Minute)},
			window:     w,
			passed:     true,
			points:     80,
			validTries: 2,
		},
		{
			name:       "Single pass earns base points",
			subs:       []models.ExerciseSubmission{pass(time.Minute)},
			window:     w,
			passed:     true,
			points:     100,
			validTries: 1,
		},
		{
			name:       "No window means no access",
			subs:       []models.ExerciseSubmission{pass(time.Minute)},
			window:     nil,
			passed:     false,
			points:     0,
			validTries: 0,
		},
		{
			name: "Penalties never push points below zero",
			subs: []models.ExerciseSubmission{
				fail(1*time.Minute, 1), fail(2*time.Minute, 1), fail(3*time.Minute, 1),
				fail(4*time.Minute, 1), fail(5*time.Minute, 1), fail(6*time.Minute, 1),
				pass(7 * time.Minute),
			},
			window:     w,
			passed:     true,
			points:     0,
			validTries: 7,
		},
		{
			name:       "Weight multiplies the penalty",
			subs:       []models.ExerciseSubmission{fail(time.Minute, 3), pass(2 * time.Minute)},
			window:     w,
			passed:     true,
			points:     40,
			validTries: 2,
		},
		{
			name:       "Tries after the first pass are ignored",
			subs:       []models.ExerciseSubmission{pass(time.Minute), fail(2*time.Minute, 1), fail(3*time.Minute, 1)},
			window:     w,
			passed:     true,
			points:     100,
			validTries: 1,
		},
		{
			name:       "Submissions are ordered by time",
			subs:       []models.ExerciseSubmission{pass(30 * time.Minute), fail(10*time.Minute, 1)},
			window:     w,
			passed:     true,
			points:     80,
			validTries: 2,
		},
		{
			name:       "Only failures",
			subs:       []models.ExerciseSubmission{fail(time.Minute, 1)},
			window:     w,
			passed:     false,
			points:     0,
			validTries: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			passed, points, tries := ExercisePoints(ex, tc.subs, tc.window)
			assert.Equal(t, tc.passed, passed)
			assert.Equal(t, tc.points, points)
			assert.Equal(t, tc.validTries, tries)
		})
	}
}

func TestExercisePoints_OutOfWindowIsIgnored(t *testing.T) {
	ex := models.Exercise{ID: 11, BasePoints: 100, PenaltyPoints: 20}
	w := &Window{Start: t0, End: at(time.Hour)}

	inside := []models.ExerciseSubmission{fail(10*time.Minute, 1), fail(20*time.Minute, 2), pass(30 * time.Minute)}
	withOutside := append([]models.ExerciseSubmission{
		pass(-time.Minute),
		fail(-2*time.Hour, 5),
		pass(time.Hour),
		fail(3*time.Hour, 1),
	}, inside...)

	assert.Equal(t, EvaluateExercise(ex, inside, w), EvaluateExercise(ex, withOutside, w))

	res := EvaluateExercise(ex, withOutside, w)
	assert.True(t, res.Passed)
	assert.Equal(t, 40, res.Points)
	assert.Equal(t, 3, res.ValidTries)
	assert.Equal(t, at(30*time.Minute), res.PassedAt)
}

func TestExercisePoints_PreStart(t *testing.T) {
	preStart := at(-time.Hour)
	w := &Window{PreStart: &preStart, Start: t0, End: at(time.Hour)}
	early := []models.ExerciseSubmission{pass(-30 * time.Minute)}

	passed, points, _ := ExercisePoints(models.Exercise{BasePoints: 10, PreStartAvailable: true}, early, w)
	assert.True(t, passed)
	assert.Equal(t, 10, points)

	passed, points, _ = ExercisePoints(models.Exercise{BasePoints: 10}, early, w)
	assert.False(t, passed)
	assert.Equal(t, 0, points)
}

func TestWindow_Contains(t *testing.T) {
	w := &Window{Start: t0, End: at(time.Hour)}

	assert.True(t, w.Contains(t0))
	assert.True(t, w.Contains(at(59*time.Minute)))
	assert.False(t, w.Contains(at(time.Hour)))
	assert.False(t, w.Contains(at(-time.Nanosecond)))

	var none *Window
	assert.False(t, none.Contains(t0))
	assert.False(t, none.AcceptsExercise(models.Exercise{PreStartAvailable: true}, t0))
}
