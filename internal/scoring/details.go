package scoring

import (
	"time"

	"github.com/shrimpsizemoose/labscore/internal/models"
)

type SubmissionDetail struct {
	models.ExerciseSubmission
	UserName string `json:"user_name"`
	Valid    bool   `json:"valid"`
}

type ExerciseDetail struct {
	Exercise    models.Exercise    `json:"exercise"`
	Result      ExerciseResult     `json:"result"`
	Submissions []SubmissionDetail `json:"submissions"`
}

type FlagSubmissionDetail struct {
	models.FlagSubmission
	UserName string `json:"user_name"`
	Valid    bool   `json:"valid"`
}

type FlagDetail struct {
	Flag          models.Flag            `json:"flag"`
	CurrentPoints int                    `json:"current_points"`
	Found         bool                   `json:"found"`
	FoundAt       *time.Time             `json:"found_at,omitempty"`
	Submissions   []FlagSubmissionDetail `json:"submissions"`
}

// Details is the submission-level drill-down of one group or one user.
type Details struct {
	Lab            models.Lab       `json:"lab"`
	Group          *models.Group    `json:"group,omitempty"`
	User           *models.User     `json:"user,omitempty"`
	Status         ExecutionStatus  `json:"status"`
	Window         *Window          `json:"window,omitempty"`
	Exercises      []ExerciseDetail `json:"exercises"`
	Flags          []FlagDetail     `json:"flags"`
	ExercisePoints int              `json:"exercise_points"`
	FlagPoints     int              `json:"flag_points"`
	BountyPoints   int              `json:"bounty_points"`
	TotalPoints    int              `json:"total_points"`
	LastSubmission *time.Time       `json:"last_submission,omitempty"`
	Summary
}

// GroupDetails lists every submission of the group's members for a lab.
// Results follow the configured aggregation. Returns nil when the lab or
// group is unknown.
func (b *Builder) GroupDetails(snap *Snapshot, labID, groupID int64) *Details {
	agg := NewAggregator(snap, KeyFor(b.PassAsGroup), b.ExcludeStaff)
	lab, ok := agg.Lab(labID)
	if !ok {
		return nil
	}
	group, ok := agg.Group(groupID)
	if !ok {
		return nil
	}

	users := make(map[int64]models.User)
	for _, u := range snap.Users {
		if u.GroupID != nil && *u.GroupID == groupID {
			users[u.ID] = u
		}
	}

	w := agg.Resolver().Window(groupID, labID)
	res := agg.GroupResult(groupID, labID)

	d := &Details{Lab: lab, Group: &group, Window: w, Status: StatusAt(w, snap.Now)}
	b.fill(d, snap, agg, agg, users, res)
	return d
}

// UserDetails answers whether one user passed on their own: pass-as-group is
// ignored, so the result may disagree with the group view. Flag values still
// come from the configured aggregation so they match the public board.
func (b *Builder) UserDetails(snap *Snapshot, labID, userID int64) *Details {
	boardAgg := NewAggregator(snap, KeyFor(b.PassAsGroup), b.ExcludeStaff)
	own := NewAggregator(snap, KeyFor(false), false)

	lab, ok := own.Lab(labID)
	if !ok {
		return nil
	}
	user, ok := own.User(userID)
	if !ok {
		return nil
	}

	res := GroupResult{
		Exercises: make(map[int64]ExerciseResult),
		Flags:     own.UserFlags(labID, user),
	}
	for _, ex := range own.Exercises(labID) {
		res.Exercises[ex.ID] = own.UserResult(ex.ID, user)
	}

	w := own.Resolver().UserWindow(user, labID)
	d := &Details{Lab: lab, User: &user, Window: w, Status: StatusAt(w, snap.Now)}
	b.fill(d, snap, own, boardAgg, map[int64]models.User{user.ID: user}, res)
	return d
}

func (b *Builder) fill(d *Details, snap *Snapshot, agg, pointsAgg *Aggregator, users map[int64]models.User, res GroupResult) {
	ids := make(map[int64]bool, len(users))
	for id := range users {
		ids[id] = true
	}

	var last time.Time
	d.Exercises = []ExerciseDetail{}
	for _, ex := range agg.Exercises(d.Lab.ID) {
		r := res.Exercises[ex.ID]
		ed := ExerciseDetail{Exercise: ex, Result: r, Submissions: []SubmissionDetail{}}
		for _, s := range ExerciseSubmissionsOf(snap, ex.ID, ids) {
			ed.Submissions = append(ed.Submissions, SubmissionDetail{
				ExerciseSubmission: s,
				UserName:           users[s.UserID].Name,
				Valid:              agg.Resolver().UserWindow(users[s.UserID], d.Lab.ID).AcceptsExercise(ex, s.Timestamp),
			})
		}
		if r.Passed {
			d.ExercisePoints += r.Points
			last = lastOf(last, r.PassedAt)
		}
		d.Exercises = append(d.Exercises, ed)
	}

	d.Flags = []FlagDetail{}
	for _, f := range agg.Flags(d.Lab.ID) {
		fd := FlagDetail{
			Flag:          f,
			CurrentPoints: b.Grader.FlagPoints(f.BasePoints, f.Bounty, pointsAgg.FlagSubmissionCount(f.ID)),
			Submissions:   []FlagSubmissionDetail{},
		}
		if at, ok := res.Flags[f.ID]; ok {
			found := at
			fd.Found = true
			fd.FoundAt = &found
			last = lastOf(last, at)
			if f.Bounty {
				d.BountyPoints += fd.CurrentPoints
			} else {
				d.FlagPoints += fd.CurrentPoints
			}
		}
		for _, s := range FlagSubmissionsOf(snap, f.ID, ids) {
			fd.Submissions = append(fd.Submissions, FlagSubmissionDetail{
				FlagSubmission: s,
				UserName:       users[s.UserID].Name,
				Valid:          agg.FlagSubmissionValid(s),
			})
		}
		d.Flags = append(d.Flags, fd)
	}

	d.FlagPoints = capFlagPoints(d.FlagPoints, d.Lab.MaxFlagPoints)
	d.TotalPoints = d.ExercisePoints + d.FlagPoints + d.BountyPoints
	if !last.IsZero() {
		d.LastSubmission = &last
	}
	d.Summary = summarize(agg.Exercises(d.Lab.ID), res.Exercises, len(res.Flags), d.Window != nil)
}
