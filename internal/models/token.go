package models

import (
	"time"
)

// TokenInfo is a participant API token with its usage counters.
type TokenInfo struct {
	UserID          int64     `json:"user_id"`
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
