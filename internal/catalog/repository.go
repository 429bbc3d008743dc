package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCapacityExhausted means a decrement would push available seats below
// zero; the class is sold out for the requested party size.
var ErrCapacityExhausted = errors.New("class capacity exhausted")

type Repository interface {
	// Reads
	Search(ctx context.Context, criteria SearchCriteria) ([]Schedule, error)
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	GetOffering(ctx context.Context, scheduleID uuid.UUID, class string) (*ClassOffering, error)
	GetShipByID(ctx context.Context, id uuid.UUID) (*Ship, error)
	ListPorts(ctx context.Context) ([]Port, error)
	ListOfferings(ctx context.Context) ([]ClassOffering, error)

	// The only catalog mutations: availability bookkeeping from the engine
	DecrementAvailability(ctx context.Context, scheduleID uuid.UUID, class string, n int) error
	RestoreAvailability(ctx context.Context, scheduleID uuid.UUID, class string, n int) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Search(ctx context.Context, criteria SearchCriteria) ([]Schedule, error) {
	dayStart := criteria.Date.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var schedules []Schedule
	err := r.db.WithContext(ctx).
		Preload("Ship").
		Preload("DeparturePort").
		Preload("ArrivalPort").
		Preload("Classes").
		Where("departure_port_id = ? AND arrival_port_id = ?", criteria.DeparturePortID, criteria.ArrivalPortID).
		Where("departure_time >= ? AND departure_time < ?", dayStart, dayEnd).
		Where("status = ?", "scheduled").
		Order("departure_time ASC").
		Find(&schedules).Error
	return schedules, err
}

func (r *repository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	var schedule Schedule
	err := r.db.WithContext(ctx).
		Preload("Ship").
		Preload("DeparturePort").
		Preload("ArrivalPort").
		Preload("Classes").
		First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) GetOffering(ctx context.Context, scheduleID uuid.UUID, class string) (*ClassOffering, error) {
	var offering ClassOffering
	err := r.db.WithContext(ctx).
		First(&offering, "schedule_id = ? AND class = ?", scheduleID, class).Error
	if err != nil {
		return nil, err
	}
	return &offering, nil
}

func (r *repository) GetShipByID(ctx context.Context, id uuid.UUID) (*Ship, error) {
	var ship Ship
	err := r.db.WithContext(ctx).First(&ship, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ship, nil
}

func (r *repository) ListPorts(ctx context.Context) ([]Port, error) {
	var ports []Port
	err := r.db.WithContext(ctx).Order("city ASC, name ASC").Find(&ports).Error
	return ports, err
}

func (r *repository) ListOfferings(ctx context.Context) ([]ClassOffering, error) {
	var offerings []ClassOffering
	err := r.db.WithContext(ctx).Find(&offerings).Error
	return offerings, err
}

func (r *repository) DecrementAvailability(ctx context.Context, scheduleID uuid.UUID, class string, n int) error {
	result := r.db.WithContext(ctx).
		Model(&ClassOffering{}).
		Where("schedule_id = ? AND class = ? AND available_seats >= ?", scheduleID, class, n).
		Update("available_seats", gorm.Expr("available_seats - ?", n))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement availability: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule %s class %s", ErrCapacityExhausted, scheduleID, class)
	}
	return nil
}

func (r *repository) RestoreAvailability(ctx context.Context, scheduleID uuid.UUID, class string, n int) error {
	result := r.db.WithContext(ctx).
		Model(&ClassOffering{}).
		Where("schedule_id = ? AND class = ?", scheduleID, class).
		Update("available_seats", gorm.Expr("LEAST(available_seats + ?, seat_capacity)", n))
	if result.Error != nil {
		return fmt.Errorf("failed to restore availability: %w", result.Error)
	}
	return nil
}
