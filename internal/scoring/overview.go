package scoring

import (
	"sort"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

type Summary struct {
	MandatoryPassed int  `json:"mandatory_passed"`
	OptionalPassed  int  `json:"optional_passed"`
	FlagsFound      int  `json:"flags_found"`
	Passed          bool `json:"passed"`
}

type UserOverview struct {
	User   models.User     `json:"user"`
	Status ExecutionStatus `json:"status"`
	Summary
}

type GroupOverview struct {
	Group  models.Group    `json:"group"`
	Status ExecutionStatus `json:"status"`
	Window *Window         `json:"window,omitempty"`
	Summary
	Users []UserOverview `json:"users"`
}

type Overview struct {
	Lab        models.Lab        `json:"lab"`
	SlotID     int64             `json:"slot_id"`
	Exercises  []models.Exercise `json:"exercises"`
	Flags      []models.Flag     `json:"flags"`
	Groups     []GroupOverview   `json:"groups"`
	Unassigned []UserOverview    `json:"unassigned,omitempty"`
}

// Overview summarises one lab for the groups of a slot. Slot 0 covers every
// group and also lists users without a group. Returns nil for an unknown lab.
func (b *Builder) Overview(snap *Snapshot, labID, slotID int64) *Overview {
	agg := NewAggregator(snap, KeyFor(b.PassAsGroup), b.ExcludeStaff)
	lab, ok := agg.Lab(labID)
	if !ok {
		return nil
	}

	ov := &Overview{
		Lab:       lab,
		SlotID:    slotID,
		Exercises: agg.Exercises(labID),
		Flags:     agg.Flags(labID),
		Groups:    []GroupOverview{},
	}

	groups := make([]models.Group, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		if slotID != 0 && (g.SlotID == nil || *g.SlotID != slotID) {
			continue
		}
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	for _, g := range groups {
		w := agg.Resolver().Window(g.ID, labID)
		status := StatusAt(w, snap.Now)
		res := agg.GroupResult(g.ID, labID)

		gov := GroupOverview{
			Group:   g,
			Status:  status,
			Window:  w,
			Summary: summarize(agg.Exercises(labID), res.Exercises, len(res.Flags), w != nil),
			Users:   []UserOverview{},
		}
		for _, m := range agg.Members(g.ID) {
			gov.Users = append(gov.Users, userOverview(agg, labID, m, status, w != nil))
		}
		ov.Groups = append(ov.Groups, gov)
	}

	if slotID == 0 {
		for _, u := range snap.Users {
			if u.GroupID != nil || (b.ExcludeStaff && u.Staff()) {
				continue
			}
			ov.Unassigned = append(ov.Unassigned, userOverview(agg, labID, u, StatusUndefined, false))
		}
	}

	return ov
}

func userOverview(agg *Aggregator, labID int64, u models.User, status ExecutionStatus, active bool) UserOverview {
	results := make(map[int64]ExerciseResult)
	for _, ex := range agg.Exercises(labID) {
		results[ex.ID] = agg.UserResult(ex.ID, u)
	}
	return UserOverview{
		User:    u,
		Status:  status,
		Summary: summarize(agg.Exercises(labID), results, len(agg.UserFlags(labID, u)), active),
	}
}

// summarize counts passed exercises. A lab is passed once every mandatory
// exercise is passed, which requires an execution to exist.
func summarize(exercises []models.Exercise, results map[int64]ExerciseResult, flagsFound int, active bool) Summary {
	s := Summary{FlagsFound: flagsFound, Passed: active}
	for _, ex := range exercises {
		passed := results[ex.ID].Passed
		switch {
		case passed && ex.Mandatory:
			s.MandatoryPassed++
		case passed:
			s.OptionalPassed++
		case ex.Mandatory:
			s.Passed = false
		}
	}
	return s
}

// lastOf returns the later of two times.
func lastOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
