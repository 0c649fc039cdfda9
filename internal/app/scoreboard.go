package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/metrics"
	"github.com/shrimpsizemoose/labscore/internal/models"
	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

// Scoreboard returns the ranked board for labID, or the global board for
// scoring.AllLabs. Boards are served from the cache while valid. A nil board
// with a nil error means the lab does not exist.
func (s *Service) Scoreboard(ctx context.Context, labID int64) (*scoring.Board, error) {
	now := s.Now()

	var generation uint64
	if s.Cache != nil {
		board, gen, err := s.Cache.Get(ctx, labID, now)
		if err != nil {
			logger.Error.Printf("Scoreboard cache lookup failed for lab %d: %v", labID, err)
		} else if board != nil {
			metrics.BoardCacheTotal.WithLabelValues("hit").Inc()
			return board, nil
		}
		generation = gen
		metrics.BoardCacheTotal.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	snap, err := s.loadSnapshot(ctx, labID, now)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	board := s.Builder.RankedBoard(snap, labID)
	if board == nil {
		return nil, nil
	}
	board.ValidUntil = now.Add(time.Duration(s.Config.Scoreboard.CacheSeconds) * time.Second)

	metrics.BoardBuildDuration.WithLabelValues("scoreboard").Observe(time.Since(start).Seconds())
	metrics.BoardEntries.WithLabelValues(strconv.FormatInt(labID, 10)).Set(float64(len(board.Entries)))
	logger.Debug.Printf("Built scoreboard for lab %d with %d entries", labID, len(board.Entries))

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, generation, board); err != nil {
			logger.Error.Printf("Failed to cache scoreboard for lab %d: %v", labID, err)
		}
	}

	return board, nil
}

// Overview is never cached.
func (s *Service) Overview(ctx context.Context, labID, slotID int64) (*scoring.Overview, error) {
	start := time.Now()
	snap, err := s.loadSnapshot(ctx, labID, s.Now())
	if err != nil || snap == nil {
		return nil, err
	}
	ov := s.Builder.Overview(snap, labID, slotID)
	metrics.BoardBuildDuration.WithLabelValues("overview").Observe(time.Since(start).Seconds())
	return ov, nil
}

func (s *Service) GroupDetails(ctx context.Context, labID, groupID int64) (*scoring.Details, error) {
	start := time.Now()
	snap, err := s.loadSnapshot(ctx, labID, s.Now())
	if err != nil || snap == nil {
		return nil, err
	}
	d := s.Builder.GroupDetails(snap, labID, groupID)
	metrics.BoardBuildDuration.WithLabelValues("group_details").Observe(time.Since(start).Seconds())
	return d, nil
}

func (s *Service) UserDetails(ctx context.Context, labID, userID int64) (*scoring.Details, error) {
	start := time.Now()
	snap, err := s.loadSnapshot(ctx, labID, s.Now())
	if err != nil || snap == nil {
		return nil, err
	}
	d := s.Builder.UserDetails(snap, labID, userID)
	metrics.BoardBuildDuration.WithLabelValues("user_details").Observe(time.Since(start).Seconds())
	return d, nil
}

// DefaultLab picks the lab to show a group first: the running execution, or
// the one starting closest to now. Returns nil when the group has none.
func (s *Service) DefaultLab(ctx context.Context, groupID int64) (*models.Lab, error) {
	execs, err := s.Store.ListGroupExecutions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	exec := scoring.MostRecentExecution(execs, s.Now())
	if exec == nil {
		return nil, nil
	}
	return s.Store.GetLab(ctx, exec.LabID)
}

// loadSnapshot reads everything one build needs. Returns nil when labID names
// a lab that does not exist.
func (s *Service) loadSnapshot(ctx context.Context, labID int64, now time.Time) (*scoring.Snapshot, error) {
	snap := &scoring.Snapshot{Now: now}

	if labID == scoring.AllLabs {
		labs, err := s.Store.ListLabs(ctx)
		if err != nil {
			return nil, err
		}
		snap.Labs = labs
	} else {
		lab, err := s.Store.GetLab(ctx, labID)
		if err != nil {
			return nil, err
		}
		if lab == nil {
			return nil, nil
		}
		snap.Labs = []models.Lab{*lab}
	}

	labIDs := make([]int64, 0, len(snap.Labs))
	for _, l := range snap.Labs {
		labIDs = append(labIDs, l.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Groups, err = s.Store.ListGroups(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Users, err = s.Store.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Exercises, err = s.Store.ListExercises(gctx, labIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.Flags, err = s.Store.ListFlags(gctx, labIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.Executions, err = s.Store.ListLabExecutions(gctx, labIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.ExerciseSubmissions, err = s.Store.ListExerciseSubmissions(gctx, labIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.FlagSubmissions, err = s.Store.ListFlagSubmissions(gctx, labIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load snapshot for lab %d: %w", labID, err)
	}

	return snap, nil
}
