package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type ExerciseSubmission struct {
	ID           int64     `db:"id" json:"id"`
	ExerciseID   int64     `db:"exercise_id" json:"exercise_id" validate:"required"`
	UserID       int64     `db:"user_id" json:"user_id" validate:"required"`
	Timestamp    time.Time `db:"created_at" json:"timestamp" validate:"required"`
	Passed       bool      `db:"passed" json:"passed"`
	Weight       int       `db:"weight" json:"weight" validate:"gte=1"`
	AdminCreated bool      `db:"admin_created" json:"admin_created"`
}

// (UserID, FlagID) is unique, enforced by the schema.
type FlagSubmission struct {
	ID        int64     `db:"id" json:"id"`
	FlagID    int64     `db:"flag_id" json:"flag_id" validate:"required"`
	UserID    int64     `db:"user_id" json:"user_id" validate:"required"`
	Timestamp time.Time `db:"created_at" json:"timestamp" validate:"required"`
}

// Normalize enforces the weight rules: passed tries always weigh 1, failed ones at least 1.
func (s *ExerciseSubmission) Normalize() {
	if s.Passed || s.Weight < 1 {
		s.Weight = 1
	}
}

func (s *ExerciseSubmission) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

func (s *FlagSubmission) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
