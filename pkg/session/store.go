package session

import (
	"context"
	"time"
)

// Store persists model snapshots of live sessions so a client can pick up
// where it left off after a reconnect or a server restart.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes data under id, replacing any previous snapshot.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error

	// Load returns the snapshot saved under id. It returns (nil, nil) when
	// there is none or it has expired.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes the snapshot saved under id. Missing ids are not an
	// error.
	Delete(ctx context.Context, id string) error

	// Touch moves the expiry of a snapshot without rewriting it.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// SaveAll writes several snapshots, atomically where the backend allows.
	SaveAll(ctx context.Context, entries map[string]Entry) error

	// Close releases the store.
	Close() error
}

// Entry is one snapshot with its expiry.
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}

// ErrClosed is returned by a store after Close.
type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "session store is closed"
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
