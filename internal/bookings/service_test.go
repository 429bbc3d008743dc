package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"shipline/internal/catalog"
	"shipline/internal/inventory"
	"shipline/internal/notifications"
	"shipline/internal/pricing"
	"shipline/internal/sessions"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu         sync.Mutex
	byCode     map[string]*Booking
	codeAlways bool  // force every CodeExists check to report a collision
	createErr  error // force CreateWithPassengers to fail

	// beforeTransition runs once before the next guarded status write,
	// splicing in a concurrent writer the way a racing sweep would.
	beforeTransition func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byCode: map[string]*Booking{}}
}

func (r *fakeRepo) CreateWithPassengers(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	b.ID = uuid.New()
	for i := range b.Passengers {
		b.Passengers[i].ID = uuid.New()
		b.Passengers[i].BookingID = b.ID
	}
	copied := *b
	r.byCode[strings.ToUpper(b.Code)] = &copied
	return nil
}

func (r *fakeRepo) GetByCode(_ context.Context, code string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) GetByContactEmail(_ context.Context, email, code string) (*Booking, error) {
	b, err := r.GetByCode(context.Background(), code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(b.ContactEmail, email) {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (r *fakeRepo) CodeExists(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.codeAlways {
		return true, nil
	}
	_, ok := r.byCode[strings.ToUpper(code)]
	return ok, nil
}

func (r *fakeRepo) TransitionStatus(_ context.Context, b *Booking, from Status) error {
	r.mu.Lock()
	fn := r.beforeTransition
	r.beforeTransition = nil
	r.mu.Unlock()
	if fn != nil {
		fn()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byCode[strings.ToUpper(b.Code)]
	if !ok {
		return ErrBookingNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: booking %s is %s", ErrStatusConflict, b.Code, stored.Status)
	}
	copied := *b
	r.byCode[strings.ToUpper(b.Code)] = &copied
	return nil
}

func (r *fakeRepo) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.byCode {
		if b.Status == StatusPendingPayment && b.PaymentExpiry.Before(now) {
			out = append(out, *b)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fakeCatalog struct {
	mu        sync.Mutex
	available int
}

func (f *fakeCatalog) DecrementAvailability(_ context.Context, _, _ string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available -= n
	return nil
}

func (f *fakeCatalog) RestoreAvailability(_ context.Context, _, _ string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available += n
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []notifications.BookingEvent
}

func (p *capturePublisher) Publish(_ context.Context, event notifications.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc      *service
	repo     *fakeRepo
	inv      inventory.Service
	manager  *sessions.Manager
	catalog  *fakeCatalog
	events   *capturePublisher
	schedule *catalog.Schedule
	key      inventory.Key
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	schedule := &catalog.Schedule{
		ID:              uuid.New(),
		DeparturePortID: uuid.New(),
		ArrivalPortID:   uuid.New(),
		DepartureTime:   time.Now().Add(72 * time.Hour),
		Classes: []catalog.ClassOffering{
			{ID: uuid.New(), Class: "economy", Price: 150000, SeatCapacity: 12, AvailableSeats: 12},
		},
	}
	key := inventory.Key{ScheduleID: schedule.ID.String(), Class: "economy"}

	store := inventory.NewMemoryStore()
	require.NoError(t, store.Provision(context.Background(), key, inventory.GenerateSeatLabels(12)))
	inv := inventory.NewService(store)

	manager := sessions.NewManager(inv, 10*time.Minute)
	repo := newFakeRepo()
	cat := &fakeCatalog{available: 12}
	events := &capturePublisher{}

	f := &fixture{
		repo:     repo,
		inv:      inv,
		manager:  manager,
		catalog:  cat,
		events:   events,
		schedule: schedule,
		key:      key,
		clock:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	svc := NewService(repo, inv, cat, manager, events, Options{
		Fees:          pricing.Fees{AdminFee: 5000, ServiceFee: 10000},
		PaymentWindow: 15 * time.Minute,
		CodeAttempts:  5,
	}).(*service)
	svc.now = func() time.Time { return f.clock }
	f.svc = svc
	return f
}

// completeSession walks a session through every step: 2 adults + 1 child in
// economy on seats 1A/1B/1C, fully identified, with contact details.
func (f *fixture) completeSession(t *testing.T) *sessions.Session {
	t.Helper()
	ctx := context.Background()

	s := f.manager.Begin()
	require.NoError(t, s.SetSearch(ctx, sessions.SearchParams{
		DeparturePortID: uuid.New().String(),
		ArrivalPortID:   uuid.New().String(),
		Date:            time.Now().Add(72 * time.Hour),
		Adults:          2,
		Children:        1,
	}))
	require.NoError(t, s.SelectScheduleAndClass(ctx, f.schedule, "economy"))
	require.NoError(t, s.SelectSeats(ctx, []string{"1A", "1B", "1C"}))
	require.NoError(t, s.BuildRoster())
	require.NoError(t, s.SetPassenger(0, sessions.Passenger{Name: "Budi Santoso", IDNumber: "3201010101010001"}))
	require.NoError(t, s.SetPassenger(1, sessions.Passenger{Name: "Dewi Santoso", IDNumber: "3201010101010002"}))
	require.NoError(t, s.SetPassenger(2, sessions.Passenger{Name: "Putra Santoso", IDNumber: "3201010101010003"}))
	require.NoError(t, s.SetContact(sessions.Contact{
		Name:  "Budi Santoso",
		Email: "budi@example.com",
		Phone: "081234567890",
	}))
	return s
}

func (f *fixture) seatState(t *testing.T, seatID string) inventory.SeatState {
	t.Helper()
	snap, err := f.inv.Snapshot(context.Background(), f.key)
	require.NoError(t, err)
	for _, seat := range snap.Seats {
		if seat.ID == seatID {
			return seat.State
		}
	}
	t.Fatalf("seat %s not in snapshot", seatID)
	return ""
}

func TestCommit_FullScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(booking.Code, "SHIP-"))
	assert.Len(t, booking.Code, len("SHIP-")+6)
	assert.Equal(t, StatusPendingPayment, booking.Status)
	assert.Equal(t, f.clock.Add(15*time.Minute), booking.PaymentExpiry)

	assert.Equal(t, int64(450000), booking.TicketPrice)
	assert.Equal(t, int64(15000), booking.AdminFee)
	assert.Equal(t, int64(30000), booking.ServiceFee)
	assert.Equal(t, int64(495000), booking.PaymentAmount)

	require.Len(t, booking.Passengers, 3)
	assert.Equal(t, "adult", booking.Passengers[0].Category)
	assert.Equal(t, "1A", booking.Passengers[0].SeatID)
	assert.Equal(t, "KTP", booking.Passengers[0].IDType)
	assert.Equal(t, "child", booking.Passengers[2].Category)

	assert.Equal(t, inventory.SeatSold, f.seatState(t, "1A"))
	assert.Equal(t, inventory.SeatSold, f.seatState(t, "1C"))
	assert.Equal(t, 9, f.catalog.available)

	_, err = f.manager.Get(s.ID)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)

	assert.Equal(t, []string{notifications.EventBookingCreated}, f.events.types())
}

func TestCommit_IncompleteRosterLeavesSeatsHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.manager.Begin()
	require.NoError(t, s.SetSearch(ctx, sessions.SearchParams{
		DeparturePortID: uuid.New().String(),
		ArrivalPortID:   uuid.New().String(),
		Date:            time.Now().Add(72 * time.Hour),
		Adults:          1,
	}))
	require.NoError(t, s.SelectScheduleAndClass(ctx, f.schedule, "economy"))
	require.NoError(t, s.SelectSeats(ctx, []string{"2A"}))
	require.NoError(t, s.BuildRoster())

	_, err := f.svc.Commit(ctx, s.ID)
	assert.ErrorIs(t, err, sessions.ErrIncompleteRoster)
	assert.Equal(t, inventory.SeatHeld, f.seatState(t, "2A"))
	assert.Empty(t, f.events.types())
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	f.clock = f.clock.Add(5 * time.Minute)
	paid, err := f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-001")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, f.clock, *paid.PaidAt)
	assert.Equal(t, "bank_transfer", paid.PaymentMethod)

	_, err = f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-002")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestConfirmPayment_AfterWindowCancels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	f.clock = f.clock.Add(16 * time.Minute)
	_, err = f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-001")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	stored, err := f.svc.GetByCode(ctx, booking.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, inventory.SeatAvailable, f.seatState(t, "1A"))
	assert.Equal(t, 12, f.catalog.available)
}

func TestConfirmPayment_LosesRaceToExpirySweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	// The sweep cancels between ConfirmPayment's expiry check and its write.
	f.repo.beforeTransition = func() {
		before := f.clock
		f.clock = f.clock.Add(16 * time.Minute)
		_, sweepErr := f.svc.ExpireOverdue(ctx)
		require.NoError(t, sweepErr)
		f.clock = before
	}

	_, err = f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-001")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	stored, err := f.svc.GetByCode(ctx, booking.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status, "the sweep's cancel must not be overwritten")
	assert.Nil(t, stored.PaidAt)
	assert.Equal(t, inventory.SeatAvailable, f.seatState(t, "1A"))
}

func TestCancel_PaidBookingReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-001")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, booking.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, inventory.SeatAvailable, f.seatState(t, "1B"))
	assert.Equal(t, 12, f.catalog.available)

	_, err = f.svc.Cancel(ctx, booking.Code)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestAdvance_ProgressionAndGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, booking.Code, "bank_transfer", "TX-001")
	require.NoError(t, err)

	_, err = f.svc.Advance(ctx, booking.Code, StatusBoarding)
	assert.ErrorIs(t, err, ErrInvalidTransition, "must not skip confirmed")

	_, err = f.svc.Advance(ctx, booking.Code, StatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, booking.Code, StatusBoarding)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, booking.Code)
	assert.ErrorIs(t, err, ErrAlreadyFinalized, "boarding bookings cannot cancel")

	completed, err := f.svc.Advance(ctx, booking.Code, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Contains(t, f.events.types(), notifications.EventBookingCompleted)
}

func TestAdvance_CannotBypassPaymentConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	// Even well past the payment window, advance must not mint a paid
	// booking: only a payment confirmation enters Paid.
	f.clock = f.clock.Add(2 * time.Hour)
	_, err = f.svc.Advance(ctx, booking.Code, StatusPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := f.svc.GetByCode(ctx, booking.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, stored.Status)
	assert.Nil(t, stored.PaidAt)
}

func TestCommit_PersistFailureKeepsSeatsHeldForSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	f.repo.createErr = errors.New("connection reset")
	_, err := f.svc.Commit(ctx, s.ID)
	require.Error(t, err)

	// The seats fall back to Held, not Available, so a rival cannot snipe
	// them before the customer retries.
	assert.Equal(t, inventory.SeatHeld, f.seatState(t, "1A"))
	rivalErr := f.inv.Hold(ctx, f.key, []string{"1A"}, "rival-session", 10*time.Minute)
	assert.ErrorIs(t, rivalErr, inventory.ErrSeatUnavailable)

	f.repo.createErr = nil
	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.SeatSold, f.seatState(t, "1A"))
	assert.Equal(t, StatusPendingPayment, booking.Status)
}

func TestExpireOverdue_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	expired, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired, "window still open")

	f.clock = f.clock.Add(20 * time.Minute)
	expired, err = f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := f.svc.GetByCode(ctx, booking.Code)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, inventory.SeatAvailable, f.seatState(t, "1A"))
	assert.Contains(t, f.events.types(), notifications.EventBookingExpired)
}

func TestGetByContactEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.completeSession(t)

	booking, err := f.svc.Commit(ctx, s.ID)
	require.NoError(t, err)

	found, err := f.svc.GetByContactEmail(ctx, "BUDI@example.com", strings.ToLower(booking.Code))
	require.NoError(t, err)
	assert.Equal(t, booking.Code, found.Code)

	_, err = f.svc.GetByContactEmail(ctx, "other@example.com", booking.Code)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGenerateCode_Exhaustion(t *testing.T) {
	f := newFixture(t)
	f.repo.codeAlways = true
	s := f.completeSession(t)

	_, err := f.svc.Commit(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrCodeGenerationExhausted)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPendingPayment, StatusPaid, true},
		{StatusPendingPayment, StatusConfirmed, false},
		{StatusPaid, StatusConfirmed, true},
		{StatusPaid, StatusCompleted, false},
		{StatusConfirmed, StatusBoarding, true},
		{StatusBoarding, StatusCompleted, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusPaid, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusBoarding, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
