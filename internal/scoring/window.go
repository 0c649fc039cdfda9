package scoring

import (
	"sort"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

// Window is the period in which a group's submissions for a lab count.
// The main window is [Start, End); PreStart, when set, opens [PreStart, End)
// for exercises that are available early.
type Window struct {
	PreStart *time.Time `json:"prestart,omitempty"`
	Start    time.Time  `json:"start"`
	End      time.Time  `json:"end"`
}

func WindowOf(exec models.LabExecution) *Window {
	return &Window{
		PreStart: exec.PreStart,
		Start:    exec.Start,
		End:      exec.End,
	}
}

// Contains reports whether t lies in [Start, End). A nil window contains nothing.
func (w *Window) Contains(t time.Time) bool {
	if w == nil {
		return false
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// AcceptsExercise is Contains widened to [PreStart, End) for early exercises.
func (w *Window) AcceptsExercise(ex models.Exercise, t time.Time) bool {
	if w == nil {
		return false
	}
	if ex.PreStartAvailable && w.PreStart != nil {
		return !t.Before(*w.PreStart) && t.Before(w.End)
	}
	return w.Contains(t)
}

type executionKey struct {
	group int64
	lab   int64
}

// Resolver answers window lookups for (group, lab) pairs.
type Resolver struct {
	executions map[executionKey]models.LabExecution
}

func NewResolver(executions []models.LabExecution) *Resolver {
	r := &Resolver{executions: make(map[executionKey]models.LabExecution, len(executions))}
	for _, e := range executions {
		r.executions[executionKey{group: e.GroupID, lab: e.LabID}] = e
	}
	return r
}

// Window returns nil when the group has no execution for the lab.
func (r *Resolver) Window(groupID, labID int64) *Window {
	exec, ok := r.executions[executionKey{group: groupID, lab: labID}]
	if !ok {
		return nil
	}
	return WindowOf(exec)
}

func (r *Resolver) UserWindow(u models.User, labID int64) *Window {
	if u.GroupID == nil {
		return nil
	}
	return r.Window(*u.GroupID, labID)
}

// MostRecentExecution picks the execution that is active at now, or failing
// that the one whose start is closest to now. Ties keep input order.
func MostRecentExecution(executions []models.LabExecution, now time.Time) *models.LabExecution {
	if len(executions) == 0 {
		return nil
	}

	for i := range executions {
		if WindowOf(executions[i]).Contains(now) {
			found := executions[i]
			return &found
		}
	}

	sorted := make([]models.LabExecution, len(executions))
	copy(sorted, executions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return absDuration(sorted[i].Start.Sub(now)) < absDuration(sorted[j].Start.Sub(now))
	})
	return &sorted[0]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
