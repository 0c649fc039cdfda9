package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

const (
	generationKeyTpl = "%s:generation"  // ${prefix}:generation
	boardKeyTpl      = "%s:board:%d:%d" // ${prefix}:board:${generation}:${lab}
)

// RedisCache shares boards between server replicas. Boards live under a
// generation namespace; Invalidate moves every reader to a fresh namespace
// with a single INCR and old keys expire on their own.
type RedisCache struct {
	redis  *redis.Client
	prefix string
}

func NewRedisCache(ctx context.Context, redisURL, prefix string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCacheFromClient(client, prefix), nil
}

func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "labscore"
	}
	return &RedisCache{redis: client, prefix: prefix}
}

func (c *RedisCache) generation(ctx context.Context) (uint64, error) {
	gen, err := c.redis.Get(ctx, fmt.Sprintf(generationKeyTpl, c.prefix)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, labID int64, now time.Time) (*scoring.Board, uint64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.redis.Get(ctx, fmt.Sprintf(boardKeyTpl, c.prefix, gen, labID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, gen, fmt.Errorf("failed to read cached board: %w", err)
	}

	var board scoring.Board
	if err := json.Unmarshal(data, &board); err != nil {
		logger.Debug.Printf("Dropping undecodable cached board for lab %d: %v", labID, err)
		return nil, gen, nil
	}
	if now.After(board.ValidUntil) {
		return nil, gen, nil
	}
	return &board, gen, nil
}

func (c *RedisCache) Set(ctx context.Context, generation uint64, board *scoring.Board) error {
	ttl := board.ValidUntil.Sub(board.BuiltAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}

	key := fmt.Sprintf(boardKeyTpl, c.prefix, generation, board.LabID)
	if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store board: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Incr(ctx, fmt.Sprintf(generationKeyTpl, c.prefix)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate boards: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
