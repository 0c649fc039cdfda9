package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/metrics"
	"github.com/shrimpsizemoose/labscore/internal/models"
	"github.com/shrimpsizemoose/labscore/internal/store"
)

var (
	ErrFlagNotFound         = errors.New("flag not found")
	ErrFlagAlreadySubmitted = errors.New("flag already submitted")
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Every write below invalidates the scoreboard cache before returning, so a
// board read after a successful write never predates it.

func (s *Service) CreateExerciseSubmission(ctx context.Context, sub *models.ExerciseSubmission) error {
	if sub.Timestamp.IsZero() {
		sub.Timestamp = s.Now()
	}
	if err := s.prepareExerciseSubmission(ctx, sub); err != nil {
		return err
	}
	if err := s.Store.CreateExerciseSubmission(ctx, sub); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues("exercise", "create").Inc()
	logger.Info.Printf("Exercise submission %d: exercise %d user %d passed=%t", sub.ID, sub.ExerciseID, sub.UserID, sub.Passed)
	return s.invalidate(ctx)
}

// UpdateExerciseSubmission replaces a stored submission. A missing timestamp
// keeps the stored one so an edit never moves the try across its window.
func (s *Service) UpdateExerciseSubmission(ctx context.Context, sub *models.ExerciseSubmission) error {
	if sub.Timestamp.IsZero() {
		stored, err := s.Store.GetExerciseSubmission(ctx, sub.ID)
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("exercise submission %d: %w", sub.ID, store.ErrNotFound)
		}
		sub.Timestamp = stored.Timestamp
	}
	if err := s.prepareExerciseSubmission(ctx, sub); err != nil {
		return err
	}
	if err := s.Store.UpdateExerciseSubmission(ctx, sub); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues("exercise", "update").Inc()
	return s.invalidate(ctx)
}

func (s *Service) DeleteExerciseSubmission(ctx context.Context, id int64) error {
	if err := s.Store.DeleteExerciseSubmission(ctx, id); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues("exercise", "delete").Inc()
	return s.invalidate(ctx)
}

func (s *Service) prepareExerciseSubmission(ctx context.Context, sub *models.ExerciseSubmission) error {
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return err
	}

	ex, err := s.Store.GetExercise(ctx, sub.ExerciseID)
	if err != nil {
		return err
	}
	if ex == nil {
		return fmt.Errorf("%w: %d", ErrExerciseNotFound, sub.ExerciseID)
	}
	user, err := s.Store.GetUser(ctx, sub.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: %d", ErrUserNotFound, sub.UserID)
	}
	return nil
}

// SubmitFlag records that userID found the flag with the given code in labID.
// The submission is stored even when it falls outside the group's window.
func (s *Service) SubmitFlag(ctx context.Context, labID, userID int64, code string) (*models.FlagSubmission, error) {
	flag, err := s.Store.GetFlagByCode(ctx, labID, code)
	if err != nil {
		return nil, err
	}
	if flag == nil {
		metrics.FlagRejectionsTotal.WithLabelValues("unknown").Inc()
		return nil, ErrFlagNotFound
	}

	sub := &models.FlagSubmission{FlagID: flag.ID, UserID: userID, Timestamp: s.Now()}
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	if err := s.Store.CreateFlagSubmission(ctx, sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			metrics.FlagRejectionsTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrFlagAlreadySubmitted
		}
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues("flag", "create").Inc()
	logger.Info.Printf("Flag %d submitted by user %d in lab %d", flag.ID, userID, labID)
	return sub, s.invalidate(ctx)
}

func (s *Service) DeleteFlagSubmission(ctx context.Context, id int64) error {
	if err := s.Store.DeleteFlagSubmission(ctx, id); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues("flag", "delete").Inc()
	return s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate scoreboard cache: %w", err)
	}
	return nil
}
