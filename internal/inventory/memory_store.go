package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-process Store implementation. Each pool is guarded
// by its own mutex, so pools on different (schedule, class) keys proceed
// independently while operations on one pool appear atomic to each other.
type MemoryStore struct {
	mu    sync.RWMutex
	pools map[Key]*seatPool

	// injectable clock for expiry tests
	now func() time.Time
}

type seatPool struct {
	mu    sync.Mutex
	order []string
	seats map[string]*seatRecord
}

type seatRecord struct {
	state     SeatState
	holderID  string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools: make(map[Key]*seatPool),
		now:   time.Now,
	}
}

// SetClock overrides the store's time source. Test hook.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MemoryStore) Provision(ctx context.Context, key Key, seatIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pools[key]; exists {
		return nil
	}

	p := &seatPool{
		order: SortSeatIDs(seatIDs),
		seats: make(map[string]*seatRecord, len(seatIDs)),
	}
	for _, id := range p.order {
		p.seats[id] = &seatRecord{state: SeatAvailable}
	}
	m.pools[key] = p
	return nil
}

func (m *MemoryStore) pool(key Key) (*seatPool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pools[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, key)
	}
	return p, nil
}

// holdable reports whether a seat can be taken by holderID at instant now.
// An expired foreign hold is reclaimable without waiting for the sweep.
func (r *seatRecord) holdable(holderID string, now time.Time) bool {
	switch r.state {
	case SeatAvailable:
		return true
	case SeatHeld:
		return r.holderID == holderID || now.After(r.expiresAt)
	default:
		return false
	}
}

func (m *MemoryStore) Hold(ctx context.Context, key Key, seatIDs []string, holderID string, ttl time.Duration) error {
	p, err := m.pool(key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := m.now()

	// Validate the whole set before touching anything: no partial holds.
	for _, id := range seatIDs {
		r, ok := p.seats[id]
		if !ok {
			return fmt.Errorf("%w: unknown seat %s", ErrSeatUnavailable, id)
		}
		if !r.holdable(holderID, now) {
			return fmt.Errorf("%w: seat %s", ErrSeatUnavailable, id)
		}
	}

	for _, id := range seatIDs {
		r := p.seats[id]
		r.state = SeatHeld
		r.holderID = holderID
		r.expiresAt = now.Add(ttl)
	}
	return nil
}

func (m *MemoryStore) Release(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	p, err := m.pool(key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range seatIDs {
		r, ok := p.seats[id]
		if !ok {
			continue
		}
		if r.state == SeatHeld && r.holderID == holderID {
			r.state = SeatAvailable
			r.holderID = ""
			r.expiresAt = time.Time{}
		}
	}
	return nil
}

func (m *MemoryStore) Commit(ctx context.Context, key Key, seatIDs []string, holderID string) error {
	p, err := m.pool(key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := m.now()

	for _, id := range seatIDs {
		r, ok := p.seats[id]
		if !ok {
			return fmt.Errorf("%w: unknown seat %s", ErrSeatUnavailable, id)
		}
		if r.state != SeatHeld || r.holderID != holderID {
			return fmt.Errorf("%w: seat %s", ErrSeatUnavailable, id)
		}
		if now.After(r.expiresAt) {
			return fmt.Errorf("%w: seat %s", ErrExpiredHold, id)
		}
	}

	for _, id := range seatIDs {
		r := p.seats[id]
		r.state = SeatSold
		r.expiresAt = time.Time{}
	}
	return nil
}

func (m *MemoryStore) Unsell(ctx context.Context, key Key, seatIDs []string) error {
	p, err := m.pool(key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range seatIDs {
		r, ok := p.seats[id]
		if !ok {
			continue
		}
		if r.state == SeatSold {
			r.state = SeatAvailable
			r.holderID = ""
		}
	}
	return nil
}

func (m *MemoryStore) Snapshot(ctx context.Context, key Key) (*Snapshot, error) {
	p, err := m.pool(key)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := m.now()
	snap := &Snapshot{
		ScheduleID: key.ScheduleID,
		Class:      key.Class,
		TotalSeats: len(p.order),
		Seats:      make([]SeatView, 0, len(p.order)),
	}
	for _, id := range p.order {
		r := p.seats[id]
		state := r.state
		if state == SeatHeld && now.After(r.expiresAt) {
			// Lapsed hold not yet swept: present it as available.
			state = SeatAvailable
		}
		if state == SeatAvailable {
			snap.Available++
		}
		snap.Seats = append(snap.Seats, SeatView{ID: id, State: state})
	}
	return snap, nil
}

func (m *MemoryStore) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.RLock()
	pools := make([]*seatPool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.RUnlock()

	reclaimed := 0
	for _, p := range pools {
		p.mu.Lock()
		for _, r := range p.seats {
			if r.state == SeatHeld && now.After(r.expiresAt) {
				r.state = SeatAvailable
				r.holderID = ""
				r.expiresAt = time.Time{}
				reclaimed++
			}
		}
		p.mu.Unlock()
	}
	return reclaimed, nil
}
