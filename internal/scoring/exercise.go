package scoring

import (
	"sort"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

type ExerciseResult struct {
	Passed     bool      `json:"passed"`
	Points     int       `json:"points"`
	ValidTries int       `json:"valid_tries"`
	PassedAt   time.Time `json:"passed_at,omitempty"`
}

// ExercisePoints folds the submissions of one exercise into pass state,
// points and the number of tries that fell inside the window.
func ExercisePoints(ex models.Exercise, submissions []models.ExerciseSubmission, w *Window) (bool, int, int) {
	res := EvaluateExercise(ex, submissions, w)
	return res.Passed, res.Points, res.ValidTries
}

// EvaluateExercise walks the submissions oldest first. Out-of-window tries are
// skipped, failed tries cost weight*PenaltyPoints, and the first pass awards
// BasePoints and ends the walk. Points never drop below zero.
func EvaluateExercise(ex models.Exercise, submissions []models.ExerciseSubmission, w *Window) ExerciseResult {
	var res ExerciseResult
	if w == nil {
		return res
	}

	ordered := make([]models.ExerciseSubmission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	for _, s := range ordered {
		if !w.AcceptsExercise(ex, s.Timestamp) {
			continue
		}
		res.ValidTries++
		if s.Passed {
			res.Points += ex.BasePoints
			res.Passed = true
			res.PassedAt = s.Timestamp
			break
		}
		weight := s.Weight
		if weight < 1 {
			weight = 1
		}
		res.Points -= weight * ex.PenaltyPoints
	}

	if res.Points < 0 {
		res.Points = 0
	}
	return res
}
