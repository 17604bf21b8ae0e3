package engine

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("hash session not found")

// Store persists serialized engine state by session id.
type Store interface {
	Save(ctx context.Context, id string, state []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	// Prune removes sessions not updated since before and returns how many
	// were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}
