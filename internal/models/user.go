package models

type User struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	GroupID *int64 `db:"group_id" json:"group_id,omitempty"`
	Tutor   bool   `db:"tutor" json:"tutor"`
	Admin   bool   `db:"admin" json:"admin"`
}

// Staff users are never counted towards a group's score.
func (u User) Staff() bool {
	return u.Tutor || u.Admin
}

type Group struct {
	ID               int64  `db:"id" json:"id"`
	Name             string `db:"name" json:"name"`
	SlotID           *int64 `db:"slot_id" json:"slot_id,omitempty"`
	ShowInScoreboard bool   `db:"show_in_scoreboard" json:"show_in_scoreboard"`
}

type Slot struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
