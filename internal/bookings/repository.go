package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrStatusConflict means the stored status no longer matches what the
	// caller read; a concurrent writer got there first.
	ErrStatusConflict = errors.New("booking status changed concurrently")
)

type Repository interface {
	CreateWithPassengers(ctx context.Context, booking *Booking) error
	GetByCode(ctx context.Context, code string) (*Booking, error)
	GetByContactEmail(ctx context.Context, email, code string) (*Booking, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	TransitionStatus(ctx context.Context, booking *Booking, from Status) error
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWithPassengers persists the booking and its passenger records in one
// transaction; the FK association makes gorm insert both.
func (r *repository) CreateWithPassengers(ctx context.Context, booking *Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return fmt.Errorf("create booking %s: %w", booking.Code, err)
	}
	return nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking by code: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByContactEmail(ctx context.Context, email, code string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("UPPER(code) = ? AND LOWER(contact_email) = ?", strings.ToUpper(code), strings.ToLower(email)).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking by contact email: %w", err)
	}
	return &booking, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check booking code: %w", err)
	}
	return count > 0, nil
}

// TransitionStatus writes the booking's new state only if the stored row is
// still in the status the caller read. The row lock closes the window between
// a service read and its write, so a payment confirmation racing the expiry
// sweep cannot both win.
func (r *repository) TransitionStatus(ctx context.Context, booking *Booking, from Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Booking
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			Where("id = ?", booking.ID).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("lock booking %s: %w", booking.Code, err)
		}
		if current.Status != from {
			return fmt.Errorf("%w: booking %s is %s", ErrStatusConflict, booking.Code, current.Status)
		}
		if err := tx.Omit(clause.Associations).Save(booking).Error; err != nil {
			return fmt.Errorf("save booking %s: %w", booking.Code, err)
		}
		return nil
	})
}

// ListExpiredPending returns pending bookings whose payment window has
// lapsed, oldest first, bounded so a sweep pass stays cheap.
func (r *repository) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("status = ? AND payment_expiry < ?", StatusPendingPayment, now).
		Order("payment_expiry ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("list expired pending bookings: %w", err)
	}
	return bookings, nil
}
