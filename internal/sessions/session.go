package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"shipline/internal/catalog"
	"shipline/internal/inventory"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

var (
	ErrInvalidSearch         = errors.New("invalid search parameters")
	ErrInsufficientCapacity  = errors.New("not enough seats available in class")
	ErrIncompleteRoster      = errors.New("passenger roster or contact details incomplete")
	ErrStepNotReached        = errors.New("previous reservation step not completed")
	ErrSeatCountMismatch     = errors.New("selected seat count does not match passenger count")
	ErrPassengerIndexInvalid = errors.New("passenger index out of range")
)

// Step tracks how far a reservation session has progressed. Each mutation
// checks the step so that out-of-order calls fail instead of producing a
// half-formed booking.
type Step int

const (
	StepNew Step = iota
	StepSearched
	StepClassSelected
	StepSeatsHeld
	StepRosterBuilt
)

const defaultIDType = "KTP"

type SearchParams struct {
	DeparturePortID string     `json:"departure_port_id" binding:"required"`
	ArrivalPortID   string     `json:"arrival_port_id" binding:"required"`
	Date            time.Time  `json:"date" binding:"required"`
	RoundTrip       bool       `json:"round_trip"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Adults          int        `json:"adults" binding:"required,min=1"`
	Children        int        `json:"children" binding:"min=0"`
	Infants         int        `json:"infants" binding:"min=0"`
}

func (p SearchParams) TotalPassengers() int {
	return p.Adults + p.Children + p.Infants
}

type Passenger struct {
	Category  string     `json:"category"`
	Name      string     `json:"name"`
	IDType    string     `json:"id_type"`
	IDNumber  string     `json:"id_number"`
	Gender    string     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	SeatID    string     `json:"seat_id"`
	Phone     string     `json:"phone,omitempty"`
}

type Contact struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

// Session is a single-owner reservation in progress. The session ID doubles
// as the inventory holder ID, so seats held here are released or committed
// as one unit.
type Session struct {
	ID string

	mu         sync.Mutex
	step       Step
	search     SearchParams
	schedule   *catalog.Schedule
	offering   *catalog.ClassOffering
	seatIDs    []string
	passengers []Passenger
	contact    Contact
	createdAt  time.Time

	inv     inventory.Service
	holdTTL time.Duration
}

func newSession(inv inventory.Service, holdTTL time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		step:      StepNew,
		createdAt: time.Now(),
		inv:       inv,
		holdTTL:   holdTTL,
	}
}

// SetSearch records trip parameters and resets any downstream progress.
func (s *Session) SetSearch(ctx context.Context, params SearchParams) error {
	if err := validateSearch(params); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dropHolds(ctx); err != nil {
		return err
	}
	s.search = params
	s.schedule = nil
	s.offering = nil
	s.seatIDs = nil
	s.passengers = nil
	s.step = StepSearched
	return nil
}

func validateSearch(p SearchParams) error {
	if p.DeparturePortID == "" || p.ArrivalPortID == "" {
		return fmt.Errorf("%w: departure and arrival ports required", ErrInvalidSearch)
	}
	if p.DeparturePortID == p.ArrivalPortID {
		return fmt.Errorf("%w: departure and arrival ports must differ", ErrInvalidSearch)
	}
	if p.Adults < 1 {
		return fmt.Errorf("%w: at least one adult required", ErrInvalidSearch)
	}
	if p.Children < 0 || p.Infants < 0 {
		return fmt.Errorf("%w: passenger counts cannot be negative", ErrInvalidSearch)
	}
	today := time.Now().Truncate(24 * time.Hour)
	if p.Date.Before(today) {
		return fmt.Errorf("%w: travel date is in the past", ErrInvalidSearch)
	}
	if p.RoundTrip {
		if p.ReturnDate == nil {
			return fmt.Errorf("%w: round trip requires a return date", ErrInvalidSearch)
		}
		if p.ReturnDate.Before(p.Date) {
			return fmt.Errorf("%w: return date before departure date", ErrInvalidSearch)
		}
	}
	return nil
}

// SelectScheduleAndClass binds the session to a schedule's class offering.
// Re-selection releases seats held under the previous choice.
func (s *Session) SelectScheduleAndClass(ctx context.Context, schedule *catalog.Schedule, class string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepSearched {
		return fmt.Errorf("%w: search not set", ErrStepNotReached)
	}

	offering, ok := schedule.OfferingFor(class)
	if !ok {
		return fmt.Errorf("class %q not offered on schedule %s", class, schedule.ID)
	}
	if offering.AvailableSeats < s.search.TotalPassengers() {
		return fmt.Errorf("%w: need %d, class %q has %d",
			ErrInsufficientCapacity, s.search.TotalPassengers(), class, offering.AvailableSeats)
	}

	if err := s.dropHolds(ctx); err != nil {
		return err
	}
	s.schedule = schedule
	s.offering = offering
	s.seatIDs = nil
	s.passengers = nil
	s.step = StepClassSelected
	return nil
}

// SelectSeats places an all-or-nothing hold on the chosen seats. The seat
// count must match the passenger count exactly.
func (s *Session) SelectSeats(ctx context.Context, seatIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepClassSelected {
		return fmt.Errorf("%w: schedule and class not selected", ErrStepNotReached)
	}
	if len(seatIDs) != s.search.TotalPassengers() {
		return fmt.Errorf("%w: %d seats for %d passengers",
			ErrSeatCountMismatch, len(seatIDs), s.search.TotalPassengers())
	}

	key := s.inventoryKeyLocked()
	if err := s.inv.Hold(ctx, key, seatIDs, s.ID, s.holdTTL); err != nil {
		return err
	}
	// Previous selection, if any, is released after the new hold lands so a
	// failed re-selection keeps the old seats.
	if released := diffSeats(s.seatIDs, seatIDs); len(released) > 0 {
		if err := s.inv.Release(ctx, key, released, s.ID); err != nil {
			return fmt.Errorf("release superseded seats: %w", err)
		}
	}

	s.seatIDs = append([]string(nil), seatIDs...)
	s.passengers = nil
	s.step = StepSeatsHeld
	return nil
}

// BuildRoster lays out one passenger slot per held seat: adults first, then
// children, then infants, with seats assigned in deterministic sorted order.
func (s *Session) BuildRoster() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepSeatsHeld {
		return fmt.Errorf("%w: seats not held", ErrStepNotReached)
	}

	ordered := inventory.SortSeatIDs(s.seatIDs)

	roster := make([]Passenger, 0, len(ordered))
	idx := 0
	appendCategory := func(category string, count int) {
		for i := 0; i < count; i++ {
			roster = append(roster, Passenger{
				Category: category,
				IDType:   defaultIDType,
				SeatID:   ordered[idx],
			})
			idx++
		}
	}
	appendCategory("adult", s.search.Adults)
	appendCategory("child", s.search.Children)
	appendCategory("infant", s.search.Infants)

	s.passengers = roster
	s.step = StepRosterBuilt
	return nil
}

// SetPassenger fills identity fields for one roster slot. Validation is
// deferred to ValidateForCommit so slots can be filled in any order.
func (s *Session) SetPassenger(index int, p Passenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepRosterBuilt {
		return fmt.Errorf("%w: roster not built", ErrStepNotReached)
	}
	if index < 0 || index >= len(s.passengers) {
		return fmt.Errorf("%w: %d", ErrPassengerIndexInvalid, index)
	}

	slot := &s.passengers[index]
	slot.Name = strings.TrimSpace(p.Name)
	slot.IDNumber = strings.TrimSpace(p.IDNumber)
	if p.IDType != "" {
		slot.IDType = p.IDType
	}
	slot.Gender = p.Gender
	slot.BirthDate = p.BirthDate
	slot.Phone = p.Phone
	return nil
}

func (s *Session) SetContact(c Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepRosterBuilt {
		return fmt.Errorf("%w: roster not built", ErrStepNotReached)
	}
	s.contact = c
	return nil
}

// ValidateForCommit checks that every roster slot and the contact block are
// complete enough to persist as a booking.
func (s *Session) ValidateForCommit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step < StepRosterBuilt {
		return fmt.Errorf("%w: roster not built", ErrStepNotReached)
	}
	for i, p := range s.passengers {
		if p.Name == "" || p.IDNumber == "" {
			return fmt.Errorf("%w: passenger %d missing identity", ErrIncompleteRoster, i)
		}
	}
	if s.contact.Name == "" || s.contact.Email == "" || s.contact.Phone == "" {
		return fmt.Errorf("%w: contact details missing", ErrIncompleteRoster)
	}
	if err := validate.Var(s.contact.Email, "email"); err != nil {
		return fmt.Errorf("%w: invalid contact email", ErrIncompleteRoster)
	}
	return nil
}

// Accessors below take the lock because the HTTP layer and the booking
// committer may observe a session concurrently.

func (s *Session) Search() SearchParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *Session) Schedule() *catalog.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

func (s *Session) Offering() *catalog.ClassOffering {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offering
}

func (s *Session) SeatIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seatIDs...)
}

func (s *Session) Passengers() []Passenger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Passenger(nil), s.passengers...)
}

func (s *Session) Contact() Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contact
}

func (s *Session) InventoryKey() inventory.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inventoryKeyLocked()
}

// HoldTTL is fixed at creation, no lock needed.
func (s *Session) HoldTTL() time.Duration {
	return s.holdTTL
}

func (s *Session) inventoryKeyLocked() inventory.Key {
	if s.schedule == nil || s.offering == nil {
		return inventory.Key{}
	}
	return inventory.Key{ScheduleID: s.schedule.ID.String(), Class: s.offering.Class}
}

// dropHolds releases whatever this session currently holds. Caller must hold
// s.mu.
func (s *Session) dropHolds(ctx context.Context) error {
	if len(s.seatIDs) == 0 {
		return nil
	}
	if err := s.inv.Release(ctx, s.inventoryKeyLocked(), s.seatIDs, s.ID); err != nil {
		return fmt.Errorf("release held seats: %w", err)
	}
	s.seatIDs = nil
	return nil
}

func diffSeats(prev, next []string) []string {
	keep := make(map[string]bool, len(next))
	for _, id := range next {
		keep[id] = true
	}
	var released []string
	for _, id := range prev {
		if !keep[id] {
			released = append(released, id)
		}
	}
	return released
}
