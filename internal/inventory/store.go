package inventory

import (
	"context"
	"time"
)

// Store is the authoritative seat inventory. Every operation is atomic per
// (schedule, class) key: hold, commit, release and sweep never interleave
// partially on the same pool. All operations fail fast rather than block.
type Store interface {
	// Provision registers the seat identifiers of a pool. Idempotent.
	Provision(ctx context.Context, key Key, seatIDs []string) error

	// Hold transitions every requested seat to Held(holderID, now+ttl), or
	// fails the whole request with ErrSeatUnavailable. No partial holds.
	// Re-holding seats already held by the same holder refreshes the expiry.
	Hold(ctx context.Context, key Key, seatIDs []string, holderID string, ttl time.Duration) error

	// Release returns seats held by holderID to Available. Seats already
	// released or sold are skipped; release is idempotent, never an error.
	Release(ctx context.Context, key Key, seatIDs []string, holderID string) error

	// Commit transitions seats from Held to Sold. Fails with ErrExpiredHold
	// if any hold lapsed, or ErrSeatUnavailable if a seat belongs to a
	// different holder. All-or-nothing.
	Commit(ctx context.Context, key Key, seatIDs []string, holderID string) error

	// Unsell reverses a seat commit (booking cancellation): Sold seats go
	// back to Available. No-op for seats not sold.
	Unsell(ctx context.Context, key Key, seatIDs []string) error

	// Snapshot returns the pool's current seat map.
	Snapshot(ctx context.Context, key Key) (*Snapshot, error)

	// SweepExpired reclaims holds whose expiry has passed and reports how
	// many seats were returned to Available.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
