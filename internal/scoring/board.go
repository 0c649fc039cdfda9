package scoring

import (
	"sort"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

// AllLabs selects the global board.
const AllLabs int64 = 0

type Entry struct {
	Rank           int        `json:"rank"`
	GroupID        int64      `json:"group_id"`
	GroupName      string     `json:"group_name"`
	ExercisePoints int        `json:"exercise_points"`
	FlagPoints     int        `json:"flag_points"`
	BountyPoints   int        `json:"bounty_points"`
	TotalPoints    int        `json:"total_points"`
	FlagCount      int        `json:"flag_count"`
	LastSubmission *time.Time `json:"last_submission,omitempty"`
}

type Board struct {
	LabID      int64     `json:"lab_id"`
	Entries    []Entry   `json:"entries"`
	EntryCount int       `json:"entry_count"`
	BuiltAt    time.Time `json:"built_at"`
	ValidUntil time.Time `json:"valid_until"`
}

// Displayed returns the first EntryCount entries plus every following entry
// that shares the rank of the last one shown.
func (b *Board) Displayed() []Entry {
	if b.EntryCount <= 0 || len(b.Entries) <= b.EntryCount {
		return b.Entries
	}
	n := b.EntryCount
	for n < len(b.Entries) && b.Entries[n].Rank == b.Entries[n-1].Rank {
		n++
	}
	return b.Entries[:n]
}

// Builder turns snapshots into boards, overviews and details.
type Builder struct {
	Grader       *Grader
	PassAsGroup  bool
	ExcludeStaff bool
	EntryCount   int
}

// RankedBoard builds the public board for one lab, or for every lab in the
// snapshot when labID is AllLabs. It returns nil when the requested lab is
// not part of the snapshot. ValidUntil is left for the caller to set.
func (b *Builder) RankedBoard(snap *Snapshot, labID int64) *Board {
	agg := NewAggregator(snap, KeyFor(b.PassAsGroup), b.ExcludeStaff)

	var labs []models.Lab
	if labID == AllLabs {
		labs = snap.Labs
	} else {
		lab, ok := agg.Lab(labID)
		if !ok {
			return nil
		}
		labs = []models.Lab{lab}
	}

	board := &Board{
		LabID:      labID,
		Entries:    []Entry{},
		EntryCount: b.EntryCount,
		BuiltAt:    snap.Now,
	}

	for _, g := range snap.Groups {
		if !g.ShowInScoreboard {
			continue
		}
		entry := Entry{GroupID: g.ID, GroupName: g.Name}
		var last time.Time
		for _, lab := range labs {
			t := b.labTotals(agg, g.ID, lab)
			entry.ExercisePoints += t.exercisePoints
			entry.FlagPoints += t.flagPoints
			entry.BountyPoints += t.bountyPoints
			entry.FlagCount += t.flagCount
			if t.last.After(last) {
				last = t.last
			}
		}
		entry.TotalPoints = entry.ExercisePoints + entry.FlagPoints + entry.BountyPoints
		if !last.IsZero() {
			entry.LastSubmission = &last
		}
		board.Entries = append(board.Entries, entry)
	}

	sort.SliceStable(board.Entries, func(i, j int) bool {
		return compareEntries(board.Entries[i], board.Entries[j]) < 0
	})
	assignRanks(board.Entries)

	return board
}

type labTotals struct {
	exercisePoints int
	flagPoints     int
	bountyPoints   int
	flagCount      int
	last           time.Time
}

func (b *Builder) labTotals(agg *Aggregator, groupID int64, lab models.Lab) labTotals {
	var t labTotals
	res := agg.GroupResult(groupID, lab.ID)

	for _, ex := range agg.Exercises(lab.ID) {
		r := res.Exercises[ex.ID]
		if !r.Passed {
			continue
		}
		t.exercisePoints += r.Points
		if r.PassedAt.After(t.last) {
			t.last = r.PassedAt
		}
	}

	for _, f := range agg.Flags(lab.ID) {
		at, ok := res.Flags[f.ID]
		if !ok {
			continue
		}
		t.flagCount++
		points := b.Grader.FlagPoints(f.BasePoints, f.Bounty, agg.FlagSubmissionCount(f.ID))
		if f.Bounty {
			t.bountyPoints += points
		} else {
			t.flagPoints += points
		}
		if at.After(t.last) {
			t.last = at
		}
	}

	t.flagPoints = capFlagPoints(t.flagPoints, lab.MaxFlagPoints)
	return t
}

// capFlagPoints applies the lab budget; a non-positive budget means no cap.
func capFlagPoints(points, budget int) int {
	if budget > 0 && points > budget {
		return budget
	}
	return points
}

// compareEntries orders by total desc, flag count desc, then last submission
// asc with groups that never submitted last.
func compareEntries(a, b Entry) int {
	if a.TotalPoints != b.TotalPoints {
		if a.TotalPoints > b.TotalPoints {
			return -1
		}
		return 1
	}
	if a.FlagCount != b.FlagCount {
		if a.FlagCount > b.FlagCount {
			return -1
		}
		return 1
	}
	switch {
	case a.LastSubmission == nil && b.LastSubmission == nil:
		return 0
	case a.LastSubmission == nil:
		return 1
	case b.LastSubmission == nil:
		return -1
	case a.LastSubmission.Before(*b.LastSubmission):
		return -1
	case b.LastSubmission.Before(*a.LastSubmission):
		return 1
	}
	return 0
}

// assignRanks uses competition ranking: 1, 1, 3.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && compareEntries(entries[i-1], entries[i]) == 0 {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
