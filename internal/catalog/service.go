package catalog

import (
	"context"
	"fmt"

	"shipline/internal/shared/constants"
	"shipline/pkg/cache"
	"shipline/pkg/logger"

	"github.com/google/uuid"
)

// Service is the read-mostly schedule catalog consumed by the reservation
// engine. Availability mutations exist only for the booking commit/cancel
// path.
type Service interface {
	Search(ctx context.Context, criteria SearchCriteria) ([]Schedule, error)
	GetSchedule(ctx context.Context, id string) (*Schedule, error)
	GetOffering(ctx context.Context, scheduleID, class string) (*ClassOffering, error)
	GetShip(ctx context.Context, id string) (*Ship, error)
	ListPorts(ctx context.Context) ([]Port, error)
	DecrementAvailability(ctx context.Context, scheduleID, class string, n int) error
	RestoreAvailability(ctx context.Context, scheduleID, class string, n int) error
}

type service struct {
	repo         Repository
	cacheService cache.Service
}

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// SetCacheService enables the cache-aside path for catalog reads.
func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) Search(ctx context.Context, criteria SearchCriteria) ([]Schedule, error) {
	if s.cacheService == nil {
		return s.repo.Search(ctx, criteria)
	}

	key := constants.BuildScheduleSearchKey(
		criteria.DeparturePortID.String(),
		criteria.ArrivalPortID.String(),
		criteria.Date.Format("2006-01-02"),
	)

	var schedules []Schedule
	err := s.cacheService.GetOrSet(ctx, key, constants.TTL_SCHEDULE_SEARCH, func() (interface{}, error) {
		return s.repo.Search(ctx, criteria)
	}, &schedules)
	if err != nil {
		logger.GetDefault().Debug("schedule search cache path failed, falling back", "error", err)
		return s.repo.Search(ctx, criteria)
	}
	return schedules, nil
}

func (s *service) GetSchedule(ctx context.Context, id string) (*Schedule, error) {
	scheduleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID: %w", err)
	}

	if s.cacheService == nil {
		return s.repo.GetScheduleByID(ctx, scheduleID)
	}

	var schedule Schedule
	err = s.cacheService.GetOrSet(ctx, constants.BuildScheduleDetailKey(id), constants.TTL_SCHEDULE_DETAIL, func() (interface{}, error) {
		return s.repo.GetScheduleByID(ctx, scheduleID)
	}, &schedule)
	if err != nil {
		return s.repo.GetScheduleByID(ctx, scheduleID)
	}
	return &schedule, nil
}

func (s *service) GetOffering(ctx context.Context, scheduleID, class string) (*ClassOffering, error) {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID: %w", err)
	}
	return s.repo.GetOffering(ctx, id, class)
}

func (s *service) GetShip(ctx context.Context, id string) (*Ship, error) {
	shipID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ship ID: %w", err)
	}
	return s.repo.GetShipByID(ctx, shipID)
}

func (s *service) ListPorts(ctx context.Context) ([]Port, error) {
	if s.cacheService == nil {
		return s.repo.ListPorts(ctx)
	}

	var ports []Port
	err := s.cacheService.GetOrSet(ctx, constants.CACHE_KEY_PORTS, constants.TTL_PORTS, func() (interface{}, error) {
		return s.repo.ListPorts(ctx)
	}, &ports)
	if err != nil {
		return s.repo.ListPorts(ctx)
	}
	return ports, nil
}

func (s *service) DecrementAvailability(ctx context.Context, scheduleID, class string, n int) error {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", err)
	}
	if err := s.repo.DecrementAvailability(ctx, id, class, n); err != nil {
		return err
	}
	s.invalidateSchedule(ctx, scheduleID)
	return nil
}

func (s *service) RestoreAvailability(ctx context.Context, scheduleID, class string, n int) error {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", err)
	}
	if err := s.repo.RestoreAvailability(ctx, id, class, n); err != nil {
		return err
	}
	s.invalidateSchedule(ctx, scheduleID)
	return nil
}

func (s *service) invalidateSchedule(ctx context.Context, scheduleID string) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, constants.BuildScheduleDetailKey(scheduleID)); err != nil {
		logger.GetDefault().Debug("failed to invalidate schedule cache", "schedule_id", scheduleID, "error", err)
	}
}
