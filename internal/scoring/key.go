package scoring

import (
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

// AggregationKey decides whose submissions are folded together and how
// per-key exercise results roll up into a group result.
type AggregationKey interface {
	Of(u models.User) (int64, bool)
	Merge(members []models.User, results map[int64]ExerciseResult) ExerciseResult
}

func KeyFor(passAsGroup bool) AggregationKey {
	if passAsGroup {
		return groupKey{}
	}
	return userKey{}
}

// groupKey pools all members' submissions: one pass counts for everyone.
type groupKey struct{}

func (groupKey) Of(u models.User) (int64, bool) {
	if u.GroupID == nil {
		return 0, false
	}
	return *u.GroupID, true
}

func (k groupKey) Merge(members []models.User, results map[int64]ExerciseResult) ExerciseResult {
	if len(members) == 0 {
		return ExerciseResult{}
	}
	key, _ := k.Of(members[0])
	return results[key]
}

// userKey keeps every user on their own. A group passes only once every
// member has passed; it earns the weakest member's points and completes at
// the latest member's pass.
type userKey struct{}

func (userKey) Of(u models.User) (int64, bool) {
	return u.ID, true
}

func (userKey) Merge(members []models.User, results map[int64]ExerciseResult) ExerciseResult {
	var merged ExerciseResult
	if len(members) == 0 {
		return merged
	}

	merged.Passed = true
	for i, m := range members {
		r := results[m.ID]
		merged.ValidTries += r.ValidTries
		if !r.Passed {
			merged.Passed = false
		}
		if i == 0 || r.Points < merged.Points {
			merged.Points = r.Points
		}
		if r.PassedAt.After(merged.PassedAt) {
			merged.PassedAt = r.PassedAt
		}
	}

	if !merged.Passed {
		merged.PassedAt = time.Time{}
	}
	return merged
}
