package app

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuth(t *testing.T) (*Auth, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	auth := &Auth{
		enabled:     true,
		tokens:      NewTokenManager(client, "auth:{user}"),
		tokenHeader: "Authorization",
	}
	t.Cleanup(func() { auth.Close() })
	return auth, mr
}

func TestTokenManager_FetchOrCreate(t *testing.T) {
	ctx := context.Background()
	auth, mr := setupAuth(t)

	info, created, err := auth.Tokens().FetchOrCreateUserToken(ctx, 7)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, strings.HasPrefix(info.Token, tokenPrefix))
	assert.Equal(t, int64(7), info.UserID)
	assert.Equal(t, 1, info.RequestCount)
	assert.Equal(t, info.Token, mr.HGet("auth:7", "token"))

	again, created, err := auth.Tokens().FetchOrCreateUserToken(ctx, 7)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, info.Token, again.Token)
	assert.Equal(t, 2, again.RequestCount)
}

func TestAuth_ValidateToken(t *testing.T) {
	ctx := context.Background()
	auth, _ := setupAuth(t)

	assert.ErrorIs(t, auth.ValidateToken(ctx, 7, "anything"), ErrTokenNotFound)

	info, _, err := auth.Tokens().FetchOrCreateUserToken(ctx, 7)
	require.NoError(t, err)

	assert.NoError(t, auth.ValidateToken(ctx, 7, info.Token))
	assert.Error(t, auth.ValidateToken(ctx, 7, "sk-lbscr-wrong"))
	assert.Error(t, auth.ValidateToken(ctx, 8, info.Token))

	require.NoError(t, auth.Tokens().RevokeUserToken(ctx, 7))
	assert.ErrorIs(t, auth.ValidateToken(ctx, 7, info.Token), ErrTokenNotFound)
}

func TestAuth_Disabled(t *testing.T) {
	auth := &Auth{}
	assert.False(t, auth.Enabled())
	assert.NoError(t, auth.ValidateToken(context.Background(), 1, ""))
	assert.NoError(t, auth.Close())
}
