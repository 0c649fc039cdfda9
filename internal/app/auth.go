// internal/app/auth.go
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

// Auth checks participant tokens issued by TokenManager. With auth disabled
// every token is accepted.
type Auth struct {
	enabled     bool
	tokens      *TokenManager
	tokenHeader string
}

func NewAuth(ctx context.Context, config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Auth{
		enabled:     true,
		tokens:      NewTokenManager(client, config.Auth.TokenKeyTemplate),
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) TokenHeader() string {
	return a.tokenHeader
}

func (a *Auth) Tokens() *TokenManager {
	return a.tokens
}

func (a *Auth) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

func (a *Auth) ValidateToken(ctx context.Context, userID int64, token string) error {
	if !a.enabled {
		return nil
	}

	stored, err := a.tokens.FetchUserToken(ctx, userID)
	if err != nil {
		logger.Debug.Printf("Token lookup failed for user %d: %v", userID, err)
		return err
	}

	if stored != token {
		logger.Debug.Printf("Token mismatch for user %d", userID)
		return fmt.Errorf("invalid token")
	}

	return nil
}
