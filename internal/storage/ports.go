// Package storage persists the dashboard state as one structured record.
package storage

import (
	"context"
	"errors"

	"zeus/internal/core"
)

var (
	// ErrNotFound means nothing was persisted yet; callers fall back to core.DefaultState.
	ErrNotFound = errors.New("ledger state not found")

	// ErrCorrupt means a record exists but cannot be trusted. Startup must stop.
	ErrCorrupt = errors.New("ledger state corrupt")
)

type (
	Store interface {
		Load(ctx context.Context) (*core.State, error)
		Save(ctx context.Context, st *core.State) error
	}

	// Pinger is implemented by stores that can report whether they are reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
