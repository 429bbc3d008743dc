package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"shipline/internal/inventory"
	"shipline/internal/notifications"
	"shipline/internal/pricing"
	"shipline/internal/sessions"
	"shipline/pkg/logger"
)

var (
	ErrCodeGenerationExhausted = errors.New("could not generate a unique booking code")
	ErrAlreadyFinalized        = errors.New("booking already finalized")
	ErrInvalidTransition       = errors.New("invalid status transition")
)

const (
	codePrefix  = "SHIP-"
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CatalogAdjuster is the slice of the catalog the booking lifecycle needs:
// the availability counters it decrements on commit and restores on cancel.
type CatalogAdjuster interface {
	DecrementAvailability(ctx context.Context, scheduleID, class string, n int) error
	RestoreAvailability(ctx context.Context, scheduleID, class string, n int) error
}

// Publisher emits lifecycle events. *notifications.Producer satisfies it;
// nil is accepted and means events are dropped.
type Publisher interface {
	Publish(ctx context.Context, event notifications.BookingEvent) error
}

type Service interface {
	Commit(ctx context.Context, sessionID string) (*Booking, error)
	ConfirmPayment(ctx context.Context, code, method, externalRef string) (*Booking, error)
	Cancel(ctx context.Context, code string) (*Booking, error)
	Advance(ctx context.Context, code string, target Status) (*Booking, error)
	GetByCode(ctx context.Context, code string) (*Booking, error)
	GetByContactEmail(ctx context.Context, email, code string) (*Booking, error)
	ExpireOverdue(ctx context.Context) (int, error)
}

type Options struct {
	Fees          pricing.Fees
	PaymentWindow time.Duration
	CodeAttempts  int
}

type service struct {
	repo     Repository
	inv      inventory.Service
	catalog  CatalogAdjuster
	sessions *sessions.Manager
	events   Publisher
	opts     Options
	now      func() time.Time
}

func NewService(repo Repository, inv inventory.Service, catalog CatalogAdjuster, manager *sessions.Manager, events Publisher, opts Options) Service {
	if opts.Fees == (pricing.Fees{}) {
		opts.Fees = pricing.DefaultFees()
	}
	if opts.PaymentWindow <= 0 {
		opts.PaymentWindow = 15 * time.Minute
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = 5
	}
	return &service{
		repo:     repo,
		inv:      inv,
		catalog:  catalog,
		sessions: manager,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

// Commit turns a completed reservation session into a persisted booking.
// Seats flip Held→Sold before anything is written; if persistence then
// fails the flip is reversed, so there is never a booking without its seats
// or sold seats without a booking.
func (s *service) Commit(ctx context.Context, sessionID string) (*Booking, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.ValidateForCommit(); err != nil {
		return nil, err
	}

	schedule := session.Schedule()
	offering := session.Offering()
	search := session.Search()
	seatIDs := session.SeatIDs()
	contact := session.Contact()
	key := session.InventoryKey()

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	quote := pricing.Quote(offering.Price, search.TotalPassengers(), s.opts.Fees)

	if err := s.inv.Commit(ctx, key, seatIDs, session.ID); err != nil {
		return nil, fmt.Errorf("commit seats: %w", err)
	}

	now := s.now()
	booking := &Booking{
		Code:           code,
		ScheduleID:     schedule.ID,
		Class:          offering.Class,
		PassengerCount: search.TotalPassengers(),
		ContactName:    contact.Name,
		ContactEmail:   contact.Email,
		ContactPhone:   contact.Phone,
		TicketPrice:    quote.TicketPrice,
		AdminFee:       quote.AdminFee,
		ServiceFee:     quote.ServiceFee,
		PaymentAmount:  quote.Total,
		Status:         StatusPendingPayment,
		PaymentExpiry:  now.Add(s.opts.PaymentWindow),
	}
	for _, p := range session.Passengers() {
		booking.Passengers = append(booking.Passengers, PassengerRecord{
			Category:  p.Category,
			Name:      p.Name,
			IDType:    p.IDType,
			IDNumber:  p.IDNumber,
			Gender:    p.Gender,
			BirthDate: p.BirthDate,
			SeatID:    p.SeatID,
			Phone:     p.Phone,
		})
	}

	if err := s.repo.CreateWithPassengers(ctx, booking); err != nil {
		// Reverse the flip, then re-hold for the session so the customer
		// keeps the seats across a retry instead of losing them to a rival.
		if unsellErr := s.inv.Unsell(ctx, key, seatIDs); unsellErr != nil {
			logger.GetDefault().ErrorWithContext(ctx, "failed to reverse seat commit", unsellErr,
				map[string]any{"booking_code": code})
		} else if holdErr := s.inv.Hold(ctx, key, seatIDs, session.ID, session.HoldTTL()); holdErr != nil {
			logger.GetDefault().ErrorWithContext(ctx, "failed to re-hold seats after reversed commit", holdErr,
				map[string]any{"booking_code": code, "session_id": session.ID})
		}
		return nil, err
	}

	// Availability counters are advisory; the seat map is authoritative. A
	// failed decrement is logged, not rolled back.
	if err := s.catalog.DecrementAvailability(ctx, key.ScheduleID, key.Class, booking.PassengerCount); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to decrement availability", err,
			map[string]any{"booking_code": code})
	}

	if err := s.sessions.ClearBooking(ctx, sessionID); err != nil && !errors.Is(err, sessions.ErrSessionNotFound) {
		logger.GetDefault().ErrorWithContext(ctx, "failed to clear session", err,
			map[string]any{"session_id": sessionID})
	}

	s.publish(ctx, notifications.EventBookingCreated, booking)
	logger.GetDefault().LogBookingCommitted(ctx, booking.Code, key.ScheduleID, booking.PaymentAmount)
	return booking, nil
}

// ConfirmPayment moves a pending booking to paid, provided the payment
// window is still open. An overdue booking is cancelled on the spot and the
// caller gets ErrAlreadyFinalized.
func (s *service) ConfirmPayment(ctx context.Context, code, method, externalRef string) (*Booking, error) {
	booking, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if booking.Status != StatusPendingPayment {
		return nil, fmt.Errorf("%w: status %s", ErrAlreadyFinalized, booking.Status)
	}
	if s.now().After(booking.PaymentExpiry) {
		err := s.cancel(ctx, booking, "payment window expired", notifications.EventBookingExpired)
		if err != nil && !errors.Is(err, ErrStatusConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: payment window expired", ErrAlreadyFinalized)
	}

	now := s.now()
	booking.Status = StatusPaid
	booking.PaidAt = &now
	booking.PaymentMethod = method
	booking.ExternalRef = externalRef
	if err := s.repo.TransitionStatus(ctx, booking, StatusPendingPayment); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, err)
		}
		return nil, err
	}

	s.publish(ctx, notifications.EventBookingPaid, booking)
	return booking, nil
}

// Cancel releases a booking's seats and availability. Boarding and terminal
// states cannot be cancelled.
func (s *service) Cancel(ctx context.Context, code string) (*Booking, error) {
	booking, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(StatusCancelled) {
		return nil, fmt.Errorf("%w: status %s", ErrAlreadyFinalized, booking.Status)
	}
	if err := s.cancel(ctx, booking, "cancelled by request", notifications.EventBookingCancelled); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyFinalized, err)
		}
		return nil, err
	}
	return booking, nil
}

// cancel flips the status first under the repository guard, then releases the
// seats. If a concurrent writer already moved the booking the guard loses and
// nothing is released.
func (s *service) cancel(ctx context.Context, booking *Booking, reason, eventType string) error {
	from := booking.Status
	booking.Status = StatusCancelled
	if err := s.repo.TransitionStatus(ctx, booking, from); err != nil {
		booking.Status = from
		return err
	}

	key := inventory.Key{ScheduleID: booking.ScheduleID.String(), Class: booking.Class}
	if err := s.inv.Unsell(ctx, key, booking.SeatIDs()); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to release seats of cancelled booking", err,
			map[string]any{"booking_code": booking.Code})
	}
	if err := s.catalog.RestoreAvailability(ctx, key.ScheduleID, key.Class, booking.PassengerCount); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to restore availability", err,
			map[string]any{"booking_code": booking.Code})
	}

	s.publish(ctx, eventType, booking)
	logger.GetDefault().LogBookingCancelled(ctx, booking.Code, reason)
	return nil
}

// Advance moves a booking one step along the operational progression
// (paid → confirmed → boarding → completed). Skips are rejected, and so are
// Paid and Cancelled as targets: entering Paid requires a payment
// confirmation, cancelling goes through Cancel.
func (s *service) Advance(ctx context.Context, code string, target Status) (*Booking, error) {
	if !target.IsValid() || target == StatusCancelled || target == StatusPaid {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTransition, target)
	}

	booking, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
	}

	from := booking.Status
	booking.Status = target
	if err := s.repo.TransitionStatus(ctx, booking, from); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, err)
		}
		return nil, err
	}

	if target == StatusCompleted {
		s.publish(ctx, notifications.EventBookingCompleted, booking)
	}
	return booking, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*Booking, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *service) GetByContactEmail(ctx context.Context, email, code string) (*Booking, error) {
	return s.repo.GetByContactEmail(ctx, email, code)
}

// ExpireOverdue cancels pending bookings whose payment window has lapsed.
// Failures on one booking do not stop the pass.
func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.ListExpiredPending(ctx, s.now(), 100)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range overdue {
		booking := &overdue[i]
		if err := s.cancel(ctx, booking, "payment window expired", notifications.EventBookingExpired); err != nil {
			// A conflict just means somebody paid or cancelled mid-sweep.
			if !errors.Is(err, ErrStatusConflict) {
				logger.GetDefault().ErrorWithContext(ctx, "failed to expire booking", err,
					map[string]any{"booking_code": booking.Code})
			}
			continue
		}
		expired++
	}
	return expired, nil
}

// generateCode draws SHIP-XXXXXX codes until one is free, bounded by the
// configured attempt count.
func (s *service) generateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.opts.CodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate booking code: %w", err)
		}
		buf[i] = codeCharset[n.Int64()]
	}
	return codePrefix + string(buf), nil
}

func (s *service) publish(ctx context.Context, eventType string, booking *Booking) {
	if s.events == nil {
		return
	}
	event := notifications.BookingEvent{
		Type:           eventType,
		BookingCode:    booking.Code,
		ScheduleID:     booking.ScheduleID.String(),
		Class:          booking.Class,
		Status:         string(booking.Status),
		PassengerCount: booking.PassengerCount,
		Amount:         booking.PaymentAmount,
		ContactEmail:   booking.ContactEmail,
		OccurredAt:     s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to publish booking event", err,
			map[string]any{"booking_code": booking.Code, "type": eventType})
	}
}
