package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Lab struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name" validate:"required,max=64"`
	MaxFlagPoints int    `db:"max_flag_points" json:"max_flag_points" validate:"gte=0"`
}

type Exercise struct {
	ID                int64 `db:"id" json:"id"`
	LabID             int64 `db:"lab_id" json:"lab_id" validate:"required"`
	Number            int   `db:"number" json:"number" validate:"gte=0"`
	Mandatory         bool  `db:"mandatory" json:"mandatory"`
	BasePoints        int   `db:"base_points" json:"base_points" validate:"gte=0"`
	PenaltyPoints     int   `db:"penalty_points" json:"penalty_points" validate:"gte=0"`
	PreStartAvailable bool  `db:"prestart_available" json:"prestart_available"`
}

type Flag struct {
	ID          int64  `db:"id" json:"id"`
	LabID       int64  `db:"lab_id" json:"lab_id" validate:"required"`
	Code        string `db:"code" json:"-" validate:"required"`
	Description string `db:"description" json:"description"`
	BasePoints  int    `db:"base_points" json:"base_points" validate:"gte=0"`
	Bounty      bool   `db:"bounty" json:"bounty"`
}

// LabExecution is the activity window of one lab for one group.
// PreStart is optional; when set it must not be after Start.
type LabExecution struct {
	GroupID  int64      `db:"group_id" json:"group_id"`
	LabID    int64      `db:"lab_id" json:"lab_id"`
	PreStart *time.Time `db:"prestart" json:"prestart,omitempty"`
	Start    time.Time  `db:"start_time" json:"start"`
	End      time.Time  `db:"end_time" json:"end"`
}

func (l *Lab) Validate() error {
	validate := validator.New()
	return validate.Struct(l)
}

func (e *Exercise) Validate() error {
	validate := validator.New()
	return validate.Struct(e)
}

func (f *Flag) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}
