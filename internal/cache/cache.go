// Package cache keeps recently built ranked boards.
//
// Every cache carries a generation. Readers get the generation together with
// the entry and hand it back when storing a rebuilt board; Invalidate bumps
// the generation, so a rebuild that started before an invalidation can never
// make its result visible after it.
package cache

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

type BoardCache interface {
	// Get returns the board for labID if it is still valid at now, nil
	// otherwise, and the current generation either way. Returned boards are
	// shared and must not be modified.
	Get(ctx context.Context, labID int64, now time.Time) (*scoring.Board, uint64, error)
	Set(ctx context.Context, generation uint64, board *scoring.Board) error
	Invalidate(ctx context.Context) error
	Close() error
}
