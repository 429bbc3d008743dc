package inventory

import (
	"context"
	"fmt"
	"time"

	"shipline/pkg/logger"
)

// Service fronts the Store for the rest of the engine: provisioning pools
// from class capacity, holding/committing seat sets, and serving snapshots.
type Service interface {
	ProvisionPool(ctx context.Context, scheduleID, class string, capacity int) error
	Hold(ctx context.Context, key Key, seatIDs []string, holderID string, ttl time.Duration) error
	Release(ctx context.Context, key Key, seatIDs []string, holderID string) error
	Commit(ctx context.Context, key Key, seatIDs []string, holderID string) error
	Unsell(ctx context.Context, key Key, seatIDs []string) error
	Snapshot(ctx context.Context, key Key) (*Snapshot, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) ProvisionPool(ctx context.Context, scheduleID, class string, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("invalid pool capacity %d for %s/%s", capacity, scheduleID, class)
	}
	key := Key{ScheduleID: scheduleID, Class: class}
	return s.store.Provision(ctx, key, GenerateSeatLabels(capacity))
}

func (s *service) Hold(ctx context.Context, key Key, seatIDs []string, holderID string, ttl time.Duration) error {
	if len(seatIDs) == 0 {
		return fmt.Errorf("no seats specified")
	}
	if err := s.store.Hold(ctx, key, seatIDs, holderID, ttl); err != nil {
		return err
	}
	logger.GetDefault().LogSeatsHeld(ctx, key.ScheduleID, key.Class, holderID, len(seatIDs))
	return nil
}

func (s *service) Release(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	return s.store.Release(ctx, key, seatIDs, holderID)
}

func (s *service) Commit(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	return s.store.Commit(ctx, key, seatIDs, holderID)
}

func (s *service) Unsell(ctx context.Context, key Key, seatIDs []string) error {
	return s.store.Unsell(ctx, key, seatIDs)
}

func (s *service) Snapshot(ctx context.Context, key Key) (*Snapshot, error) {
	return s.store.Snapshot(ctx, key)
}
