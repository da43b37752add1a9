package storage

import (
	"context"
	"errors"
)

//go:generate mockgen -source=storage.go -destination=kv_mock.go -package=storage

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("key not found")

// KV is a durable string key-value store. It backs the session credentials,
// the transaction cache, and per-month budgets, and survives process restarts.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Well-known keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
	KeyTransactions = "transactions"
)
