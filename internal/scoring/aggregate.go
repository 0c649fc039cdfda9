package scoring

import (
	"sort"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

// Snapshot is the read-only input of one build. Now is taken once per build
// so that every window check in the run agrees on the current time.
type Snapshot struct {
	Now                 time.Time
	Labs                []models.Lab
	Exercises           []models.Exercise
	Flags               []models.Flag
	Groups              []models.Group
	Users               []models.User
	Executions          []models.LabExecution
	ExerciseSubmissions []models.ExerciseSubmission
	FlagSubmissions     []models.FlagSubmission
}

// GroupResult is what a group achieved in one lab.
type GroupResult struct {
	Exercises map[int64]ExerciseResult
	// Flags maps each validly found flag to the earliest member submission.
	Flags map[int64]time.Time
}

// Aggregator indexes a snapshot and groups submissions by exercise and
// aggregation key. It is not safe for concurrent mutation but is never
// mutated after construction.
type Aggregator struct {
	key          AggregationKey
	excludeStaff bool
	resolver     *Resolver

	labs      map[int64]models.Lab
	users     map[int64]models.User
	groups    map[int64]models.Group
	members   map[int64][]models.User
	exercises map[int64][]models.Exercise
	flags     map[int64][]models.Flag
	flagLab   map[int64]int64

	exerciseSubs map[int64]map[int64][]models.ExerciseSubmission
	exerciseRes  map[int64]map[int64]ExerciseResult
	flagSubs     map[int64]map[int64]models.FlagSubmission
	flagCounts   map[int64]int
}

func NewAggregator(snap *Snapshot, key AggregationKey, excludeStaff bool) *Aggregator {
	a := &Aggregator{
		key:          key,
		excludeStaff: excludeStaff,
		resolver:     NewResolver(snap.Executions),
		labs:         make(map[int64]models.Lab, len(snap.Labs)),
		users:        make(map[int64]models.User, len(snap.Users)),
		groups:       make(map[int64]models.Group, len(snap.Groups)),
		members:      make(map[int64][]models.User),
		exercises:    make(map[int64][]models.Exercise),
		flags:        make(map[int64][]models.Flag),
		flagLab:      make(map[int64]int64, len(snap.Flags)),
		exerciseSubs: make(map[int64]map[int64][]models.ExerciseSubmission),
		exerciseRes:  make(map[int64]map[int64]ExerciseResult),
		flagSubs:     make(map[int64]map[int64]models.FlagSubmission),
		flagCounts:   make(map[int64]int),
	}

	for _, l := range snap.Labs {
		a.labs[l.ID] = l
	}
	for _, g := range snap.Groups {
		a.groups[g.ID] = g
	}
	for _, u := range snap.Users {
		a.users[u.ID] = u
		if u.GroupID != nil && a.counts(u) {
			a.members[*u.GroupID] = append(a.members[*u.GroupID], u)
		}
	}
	for _, ms := range a.members {
		sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	}

	exerciseLab := make(map[int64]models.Exercise, len(snap.Exercises))
	for _, e := range snap.Exercises {
		a.exercises[e.LabID] = append(a.exercises[e.LabID], e)
		exerciseLab[e.ID] = e
	}
	for _, es := range a.exercises {
		sort.SliceStable(es, func(i, j int) bool { return es[i].Number < es[j].Number })
	}

	for _, f := range snap.Flags {
		a.flags[f.LabID] = append(a.flags[f.LabID], f)
		a.flagLab[f.ID] = f.LabID
	}
	for _, fs := range a.flags {
		sort.SliceStable(fs, func(i, j int) bool {
			if fs[i].Bounty != fs[j].Bounty {
				return !fs[i].Bounty
			}
			return fs[i].ID < fs[j].ID
		})
	}

	for _, s := range snap.ExerciseSubmissions {
		u, ok := a.users[s.UserID]
		if !ok || !a.counts(u) {
			continue
		}
		if _, ok := exerciseLab[s.ExerciseID]; !ok {
			continue
		}
		k, ok := a.key.Of(u)
		if !ok {
			continue
		}
		if a.exerciseSubs[s.ExerciseID] == nil {
			a.exerciseSubs[s.ExerciseID] = make(map[int64][]models.ExerciseSubmission)
		}
		a.exerciseSubs[s.ExerciseID][k] = append(a.exerciseSubs[s.ExerciseID][k], s)
	}

	for exID, byKey := range a.exerciseSubs {
		ex := exerciseLab[exID]
		a.exerciseRes[exID] = make(map[int64]ExerciseResult, len(byKey))
		for k, subs := range byKey {
			// every submission under one key shares the submitters' group window
			w := a.resolver.UserWindow(a.users[subs[0].UserID], ex.LabID)
			a.exerciseRes[exID][k] = EvaluateExercise(ex, subs, w)
		}
	}

	for _, s := range snap.FlagSubmissions {
		u, ok := a.users[s.UserID]
		if !ok || !a.counts(u) {
			continue
		}
		if _, ok := a.flagLab[s.FlagID]; !ok {
			continue
		}
		if a.flagSubs[s.FlagID] == nil {
			a.flagSubs[s.FlagID] = make(map[int64]models.FlagSubmission)
		}
		a.flagSubs[s.FlagID][s.UserID] = s
		if a.FlagSubmissionValid(s) {
			a.flagCounts[s.FlagID]++
		}
	}

	return a
}

func (a *Aggregator) counts(u models.User) bool {
	return !a.excludeStaff || !u.Staff()
}

func (a *Aggregator) Resolver() *Resolver {
	return a.resolver
}

func (a *Aggregator) Lab(id int64) (models.Lab, bool) {
	l, ok := a.labs[id]
	return l, ok
}

func (a *Aggregator) Group(id int64) (models.Group, bool) {
	g, ok := a.groups[id]
	return g, ok
}

func (a *Aggregator) User(id int64) (models.User, bool) {
	u, ok := a.users[id]
	return u, ok
}

// Members lists the scoring members of a group ordered by id.
func (a *Aggregator) Members(groupID int64) []models.User {
	return a.members[groupID]
}

// Exercises of a lab ordered by exercise number.
func (a *Aggregator) Exercises(labID int64) []models.Exercise {
	return a.exercises[labID]
}

// Flags of a lab, bounty flags last.
func (a *Aggregator) Flags(labID int64) []models.Flag {
	return a.flags[labID]
}

// FlagSubmissionValid checks a flag submission against the submitter's group window.
func (a *Aggregator) FlagSubmissionValid(s models.FlagSubmission) bool {
	labID, ok := a.flagLab[s.FlagID]
	if !ok {
		return false
	}
	return a.resolver.UserWindow(a.users[s.UserID], labID).Contains(s.Timestamp)
}

// FlagSubmissionCount is the number of valid submissions of a flag across all users.
func (a *Aggregator) FlagSubmissionCount(flagID int64) int {
	return a.flagCounts[flagID]
}

// KeyResult is the exercise result of one aggregation key.
func (a *Aggregator) KeyResult(exerciseID, key int64) ExerciseResult {
	return a.exerciseRes[exerciseID][key]
}

// UserResult is the exercise result seen by one user: their own under
// per-user aggregation, their group's under pass-as-group.
func (a *Aggregator) UserResult(exerciseID int64, u models.User) ExerciseResult {
	k, ok := a.key.Of(u)
	if !ok {
		return ExerciseResult{}
	}
	return a.KeyResult(exerciseID, k)
}

// UserFlags maps the flags a user validly found in a lab to submission time.
func (a *Aggregator) UserFlags(labID int64, u models.User) map[int64]time.Time {
	found := make(map[int64]time.Time)
	for _, f := range a.flags[labID] {
		s, ok := a.flagSubs[f.ID][u.ID]
		if ok && a.FlagSubmissionValid(s) {
			found[f.ID] = s.Timestamp
		}
	}
	return found
}

// GroupResult merges the members' results of a lab into a group result.
// Flags are a union over members, exercises merge through the aggregation key.
func (a *Aggregator) GroupResult(groupID, labID int64) GroupResult {
	members := a.members[groupID]
	res := GroupResult{
		Exercises: make(map[int64]ExerciseResult),
		Flags:     make(map[int64]time.Time),
	}

	for _, ex := range a.exercises[labID] {
		res.Exercises[ex.ID] = a.key.Merge(members, a.exerciseRes[ex.ID])
	}

	for _, m := range members {
		for flagID, at := range a.UserFlags(labID, m) {
			if prev, ok := res.Flags[flagID]; !ok || at.Before(prev) {
				res.Flags[flagID] = at
			}
		}
	}

	return res
}

// ExerciseSubmissionsOf lists every stored submission of an exercise by the
// given users, oldest first, regardless of validity or staff status.
func ExerciseSubmissionsOf(snap *Snapshot, exerciseID int64, users map[int64]bool) []models.ExerciseSubmission {
	var out []models.ExerciseSubmission
	for _, s := range snap.ExerciseSubmissions {
		if s.ExerciseID == exerciseID && users[s.UserID] {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func FlagSubmissionsOf(snap *Snapshot, flagID int64, users map[int64]bool) []models.FlagSubmission {
	var out []models.FlagSubmission
	for _, s := range snap.FlagSubmissions {
		if s.FlagID == flagID && users[s.UserID] {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
