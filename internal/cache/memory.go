package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

type memoryState struct {
	generation uint64
	boards     map[int64]*scoring.Board
}

// MemoryCache swaps an immutable state on every write; readers never lock.
type MemoryCache struct {
	mu    sync.Mutex
	state atomic.Pointer[memoryState]
}

func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{}
	c.state.Store(&memoryState{boards: map[int64]*scoring.Board{}})
	return c
}

func (c *MemoryCache) Get(_ context.Context, labID int64, now time.Time) (*scoring.Board, uint64, error) {
	st := c.state.Load()
	b, ok := st.boards[labID]
	if !ok || now.After(b.ValidUntil) {
		return nil, st.generation, nil
	}
	return b, st.generation, nil
}

func (c *MemoryCache) Set(_ context.Context, generation uint64, board *scoring.Board) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	if cur.generation != generation {
		return nil
	}

	boards := make(map[int64]*scoring.Board, len(cur.boards)+1)
	for k, v := range cur.boards {
		boards[k] = v
	}
	boards[board.LabID] = board

	c.state.Store(&memoryState{generation: generation, boards: boards})
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.state.Load()
	c.state.Store(&memoryState{
		generation: cur.generation + 1,
		boards:     map[int64]*scoring.Board{},
	})
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
