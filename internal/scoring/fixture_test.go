package scoring

import (
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

func id(v int64) *int64 {
	return &v
}

// newFixture describes one lab run by four groups at t0 for two hours:
// alpha (ann, bob and tutor eve), bravo (cid), charlie (dan) and a hidden
// group. fay has no group.
func newFixture() *Snapshot {
	window := func(groupID int64) models.LabExecution {
		return models.LabExecution{GroupID: groupID, LabID: 1, Start: t0, End: at(2 * time.Hour)}
	}

	return &Snapshot{
		Now:  at(time.Hour),
		Labs: []models.Lab{{ID: 1, Name: "web"}},
		Exercises: []models.Exercise{
			{ID: 12, LabID: 1, Number: 2, BasePoints: 50, PenaltyPoints: 10},
			{ID: 11, LabID: 1, Number: 1, Mandatory: true, BasePoints: 100, PenaltyPoints: 20},
		},
		Flags: []models.Flag{
			{ID: 22, LabID: 1, Code: "FLAG{bounty}", BasePoints: 30, Bounty: true},
			{ID: 21, LabID: 1, Code: "FLAG{sqli}", BasePoints: 100},
		},
		Groups: []models.Group{
			{ID: 1, Name: "alpha", SlotID: id(1), ShowInScoreboard: true},
			{ID: 2, Name: "bravo", SlotID: id(1), ShowInScoreboard: true},
			{ID: 3, Name: "charlie", SlotID: id(2), ShowInScoreboard: true},
			{ID: 4, Name: "hidden", SlotID: id(2)},
		},
		Users: []models.User{
			{ID: 1, Name: "ann", GroupID: id(1)},
			{ID: 2, Name: "bob", GroupID: id(1)},
			{ID: 3, Name: "cid", GroupID: id(2)},
			{ID: 4, Name: "dan", GroupID: id(3)},
			{ID: 5, Name: "eve", GroupID: id(1), Tutor: true},
			{ID: 6, Name: "fay"},
		},
		Executions: []models.LabExecution{window(1), window(2), window(3), window(4)},
		ExerciseSubmissions: []models.ExerciseSubmission{
			{ID: 1, ExerciseID: 11, UserID: 1, Timestamp: at(5 * time.Minute), Weight: 1},
			{ID: 2, ExerciseID: 11, UserID: 2, Timestamp: at(10 * time.Minute), Passed: true, Weight: 1},
			{ID: 3, ExerciseID: 11, UserID: 3, Timestamp: at(15 * time.Minute), Passed: true, Weight: 1},
			{ID: 4, ExerciseID: 11, UserID: 5, Timestamp: at(time.Minute), Passed: true, Weight: 1},
			{ID: 5, ExerciseID: 11, UserID: 4, Timestamp: at(-time.Hour), Passed: true, Weight: 1},
		},
		FlagSubmissions: []models.FlagSubmission{
			{ID: 1, FlagID: 21, UserID: 1, Timestamp: at(20 * time.Minute)},
			{ID: 2, FlagID: 21, UserID: 3, Timestamp: at(25 * time.Minute)},
			{ID: 3, FlagID: 21, UserID: 5, Timestamp: at(2 * time.Minute)},
			{ID: 4, FlagID: 22, UserID: 4, Timestamp: at(3 * time.Hour)},
		},
	}
}

func newBuilder(passAsGroup, excludeStaff bool) *Builder {
	grader, err := NewGrader(4, 5)
	if err != nil {
		panic(err)
	}
	return &Builder{
		Grader:       grader,
		PassAsGroup:  passAsGroup,
		ExcludeStaff: excludeStaff,
		EntryCount:   10,
	}
}
