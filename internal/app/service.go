package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/cache"
	"github.com/shrimpsizemoose/labscore/internal/scoring"
	"github.com/shrimpsizemoose/labscore/internal/store"
)

type Service struct {
	Config  *Config
	Store   store.ScoreStore
	Auth    *Auth
	Builder *scoring.Builder
	// Cache is nil when scoreboard caching is disabled.
	Cache cache.BoardCache
	Now   func() time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	st, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(ctx, config)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	boardCache, err := newBoardCache(ctx, config)
	if err != nil {
		st.Close()
		auth.Close()
		return nil, fmt.Errorf("failed to init scoreboard cache: %w", err)
	}

	return NewServiceWith(config, st, boardCache, auth)
}

// NewServiceWith assembles a service from already opened collaborators.
func NewServiceWith(config *Config, st store.ScoreStore, boardCache cache.BoardCache, auth *Auth) (*Service, error) {
	grader, err := NewGraderFromConfig(config)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		auth = &Auth{tokenHeader: config.Auth.TokenHeader}
	}

	return &Service{
		Config: config,
		Store:  st,
		Auth:   auth,
		Cache:  boardCache,
		Builder: &scoring.Builder{
			Grader:       grader,
			PassAsGroup:  config.Scoring.PassAsGroup,
			ExcludeStaff: config.Scoring.ExcludeStaff,
			EntryCount:   config.Scoreboard.EntryCount,
		},
		Now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func NewGraderFromConfig(config *Config) (*scoring.Grader, error) {
	grader, err := scoring.NewGrader(config.Scoring.MinPointsDivisor, config.Scoring.HalfPointsCount)
	if err != nil {
		return nil, fmt.Errorf("failed to init grader: %w", err)
	}
	return grader, nil
}

func newBoardCache(ctx context.Context, config *Config) (cache.BoardCache, error) {
	if config.Scoreboard.CacheSeconds == 0 {
		logger.Info.Printf("Scoreboard cache disabled")
		return nil, nil
	}

	switch config.Scoreboard.CacheBackend {
	case CacheBackendRedis:
		logger.Info.Printf("Using redis scoreboard cache, ttl %ds", config.Scoreboard.CacheSeconds)
		return cache.NewRedisCache(ctx, config.Scoreboard.RedisURL, config.Scoreboard.KeyPrefix)
	default:
		logger.Info.Printf("Using in-memory scoreboard cache, ttl %ds", config.Scoreboard.CacheSeconds)
		return cache.NewMemoryCache(), nil
	}
}

// Authenticate checks the bearer token for userID when auth is enabled.
func (s *Service) Authenticate(r *http.Request, userID int64) error {
	if !s.Auth.Enabled() {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.TokenHeader())
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), userID, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
