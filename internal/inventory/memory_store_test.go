package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, store *MemoryStore, capacity int) Key {
	t.Helper()
	key := Key{ScheduleID: "sched-1", Class: "Economy"}
	require.NoError(t, store.Provision(context.Background(), key, GenerateSeatLabels(capacity)))
	return key
}

func TestHold_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 4)

	require.NoError(t, store.Hold(ctx, key, []string{"1B"}, "holder-b", time.Minute))

	// holder-a wants 1A+1B; 1B is taken, so 1A must not be held either
	err := store.Hold(ctx, key, []string{"1A", "1B"}, "holder-a", time.Minute)
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, SeatAvailable, snap.Seats[0].State, "1A must stay available after failed group hold")
	assert.Equal(t, SeatHeld, snap.Seats[1].State)
}

func TestHold_UnknownSeat(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	err := store.Hold(ctx, key, []string{"9Z"}, "holder-a", time.Minute)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestHold_RacingHolders_ExactlyPoolSizeSucceed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	const seats = 5
	const holders = 20
	key := newTestPool(t, store, seats)
	labels := GenerateSeatLabels(seats)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func(holder int) {
			defer wg.Done()
			// each holder scans the pool and takes the first free seat
			for _, label := range labels {
				if err := store.Hold(ctx, key, []string{label}, string(rune('a'+holder)), time.Minute); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, seats, succeeded, "exactly one holder per seat must win")

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Available)
}

func TestRelease_ThenHoldByOtherHolder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))
	require.NoError(t, store.Release(ctx, key, []string{"1A"}, "holder-a"))
	assert.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-b", time.Minute))
}

func TestRelease_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))

	require.NoError(t, store.Release(ctx, key, []string{"1A"}, "holder-a"))
	require.NoError(t, store.Release(ctx, key, []string{"1A"}, "holder-a"))

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, SeatAvailable, snap.Seats[0].State)
}

func TestRelease_DoesNotTouchForeignOrSoldSeats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))
	require.NoError(t, store.Commit(ctx, key, []string{"1A"}, "holder-a"))

	// releasing a sold seat is a no-op, not an error
	require.NoError(t, store.Release(ctx, key, []string{"1A"}, "holder-a"))

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, SeatSold, snap.Seats[0].State)
}

func TestHold_SoldSeatAlwaysFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))
	require.NoError(t, store.Commit(ctx, key, []string{"1A"}, "holder-a"))

	err := store.Hold(ctx, key, []string{"1A"}, "holder-b", time.Minute)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestCommit_ForeignHolderFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))

	err := store.Commit(ctx, key, []string{"1A"}, "holder-b")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestCommit_ExpiredHoldFails(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	require.NoError(t, store.Hold(ctx, key, []string{"1A"}, "holder-a", time.Minute))

	current = current.Add(2 * time.Minute)
	err := store.Commit(ctx, key, []string{"1A"}, "holder-a")
	assert.ErrorIs(t, err, ErrExpiredHold)
}

func TestSweepExpired_ReclaimsLapsedHolds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 3)

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	require.NoError(t, store.Hold(ctx, key, []string{"1A", "1B"}, "holder-a", time.Minute))
	require.NoError(t, store.Hold(ctx, key, []string{"1C"}, "holder-b", 10*time.Minute))

	reclaimed, err := store.SweepExpired(ctx, current.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed, "only the lapsed holds are reclaimed")

	assert.NoError(t, store.Hold(ctx, key, []string{"1A", "1B"}, "holder-c", time.Minute))
	assert.ErrorIs(t, store.Hold(ctx, key, []string{"1C"}, "holder-c", time.Minute), ErrSeatUnavailable)
}

func TestUnsell_ReversesCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := newTestPool(t, store, 2)

	require.NoError(t, store.Hold(ctx, key, []string{"1A", "1B"}, "holder-a", time.Minute))
	require.NoError(t, store.Commit(ctx, key, []string{"1A", "1B"}, "holder-a"))
	require.NoError(t, store.Unsell(ctx, key, []string{"1A", "1B"}))

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Available)
}

func TestSnapshot_KeepsRowOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := Key{ScheduleID: "sched-1", Class: "Business"}
	require.NoError(t, store.Provision(ctx, key, []string{"10A", "2B", "1A", "2A"}))

	snap, err := store.Snapshot(ctx, key)
	require.NoError(t, err)

	got := make([]string, 0, len(snap.Seats))
	for _, s := range snap.Seats {
		got = append(got, s.ID)
	}
	assert.Equal(t, []string{"1A", "2A", "2B", "10A"}, got)
}

func TestGenerateSeatLabels(t *testing.T) {
	labels := GenerateSeatLabels(6)
	assert.Equal(t, []string{"1A", "1B", "1C", "1D", "2A", "2B"}, labels)
}

func TestSortSeatIDs_Stable(t *testing.T) {
	first := SortSeatIDs([]string{"1C", "1A", "1B"})
	second := SortSeatIDs([]string{"1B", "1C", "1A"})
	assert.Equal(t, first, second)
}
