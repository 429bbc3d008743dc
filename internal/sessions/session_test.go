package sessions

import (
	"context"
	"testing"
	"time"

	"shipline/internal/catalog"
	"shipline/internal/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule(t *testing.T, capacity, available int) *catalog.Schedule {
	t.Helper()
	return &catalog.Schedule{
		ID:              uuid.New(),
		DeparturePortID: uuid.New(),
		ArrivalPortID:   uuid.New(),
		DepartureTime:   time.Now().Add(48 * time.Hour),
		Classes: []catalog.ClassOffering{
			{
				ID:             uuid.New(),
				Class:          "economy",
				Price:          150000,
				SeatCapacity:   capacity,
				AvailableSeats: available,
			},
		},
	}
}

func testManager(t *testing.T, schedule *catalog.Schedule, capacity int) (*Manager, inventory.Service) {
	t.Helper()
	store := inventory.NewMemoryStore()
	inv := inventory.NewService(store)
	key := inventory.Key{ScheduleID: schedule.ID.String(), Class: "economy"}
	require.NoError(t, store.Provision(context.Background(), key, inventory.GenerateSeatLabels(capacity)))
	return NewManager(inv, 10*time.Minute), inv
}

func validSearch() SearchParams {
	return SearchParams{
		DeparturePortID: uuid.New().String(),
		ArrivalPortID:   uuid.New().String(),
		Date:            time.Now().Add(48 * time.Hour),
		Adults:          2,
		Children:        1,
		Infants:         0,
	}
}

func TestSetSearch_Validation(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, _ := testManager(t, schedule, 8)
	ctx := context.Background()

	samePort := uuid.New().String()
	past := validSearch()
	past.Date = time.Now().Add(-48 * time.Hour)
	noAdults := validSearch()
	noAdults.Adults = 0
	loop := validSearch()
	loop.DeparturePortID = samePort
	loop.ArrivalPortID = samePort
	roundTripNoReturn := validSearch()
	roundTripNoReturn.RoundTrip = true

	tests := []struct {
		name   string
		params SearchParams
	}{
		{"same departure and arrival", loop},
		{"no adults", noAdults},
		{"date in the past", past},
		{"round trip without return date", roundTripNoReturn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := manager.Begin()
			err := s.SetSearch(ctx, tt.params)
			assert.ErrorIs(t, err, ErrInvalidSearch)
		})
	}

	s := manager.Begin()
	assert.NoError(t, s.SetSearch(ctx, validSearch()))
}

func TestStepGating(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, _ := testManager(t, schedule, 8)
	ctx := context.Background()

	s := manager.Begin()

	err := s.SelectScheduleAndClass(ctx, schedule, "economy")
	assert.ErrorIs(t, err, ErrStepNotReached)

	err = s.SelectSeats(ctx, []string{"1A"})
	assert.ErrorIs(t, err, ErrStepNotReached)

	err = s.BuildRoster()
	assert.ErrorIs(t, err, ErrStepNotReached)

	err = s.SetContact(Contact{Name: "A", Email: "a@b.c", Phone: "08"})
	assert.ErrorIs(t, err, ErrStepNotReached)
}

func TestSelectScheduleAndClass_InsufficientCapacity(t *testing.T) {
	schedule := testSchedule(t, 8, 2)
	manager, _ := testManager(t, schedule, 8)
	ctx := context.Background()

	s := manager.Begin()
	require.NoError(t, s.SetSearch(ctx, validSearch())) // 3 passengers

	err := s.SelectScheduleAndClass(ctx, schedule, "economy")
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestSelectSeats_CountMismatch(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, _ := testManager(t, schedule, 8)
	ctx := context.Background()

	s := manager.Begin()
	require.NoError(t, s.SetSearch(ctx, validSearch()))
	require.NoError(t, s.SelectScheduleAndClass(ctx, schedule, "economy"))

	err := s.SelectSeats(ctx, []string{"1A", "1B"})
	assert.ErrorIs(t, err, ErrSeatCountMismatch)
}

func TestFullFlow_RosterOrderAndHolds(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, inv := testManager(t, schedule, 8)
	ctx := context.Background()
	key := inventory.Key{ScheduleID: schedule.ID.String(), Class: "economy"}

	s := manager.Begin()
	search := validSearch()
	search.Adults = 1
	search.Children = 1
	search.Infants = 1
	require.NoError(t, s.SetSearch(ctx, search))
	require.NoError(t, s.SelectScheduleAndClass(ctx, schedule, "economy"))

	// Deliberately unsorted input: the roster must still assign seats in
	// row-then-letter order.
	require.NoError(t, s.SelectSeats(ctx, []string{"2B", "1A", "1C"}))
	require.NoError(t, s.BuildRoster())

	roster := s.Passengers()
	require.Len(t, roster, 3)
	assert.Equal(t, "adult", roster[0].Category)
	assert.Equal(t, "1A", roster[0].SeatID)
	assert.Equal(t, "child", roster[1].Category)
	assert.Equal(t, "1C", roster[1].SeatID)
	assert.Equal(t, "infant", roster[2].Category)
	assert.Equal(t, "2B", roster[2].SeatID)
	assert.Equal(t, defaultIDType, roster[0].IDType)

	snap, err := inv.Snapshot(ctx, key)
	require.NoError(t, err)
	held := 0
	for _, seat := range snap.Seats {
		if seat.State == inventory.SeatHeld {
			held++
		}
	}
	assert.Equal(t, 3, held)
}

func TestSelectSeats_ReselectionReleasesOldHolds(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, inv := testManager(t, schedule, 8)
	ctx := context.Background()
	key := inventory.Key{ScheduleID: schedule.ID.String(), Class: "economy"}

	s := manager.Begin()
	search := validSearch()
	search.Adults = 2
	search.Children = 0
	require.NoError(t, s.SetSearch(ctx, search))
	require.NoError(t, s.SelectScheduleAndClass(ctx, schedule, "economy"))

	require.NoError(t, s.SelectSeats(ctx, []string{"1A", "1B"}))
	require.NoError(t, s.SelectSeats(ctx, []string{"1B", "2A"}))

	// 1A must be holdable again by someone else.
	other := manager.Begin()
	require.NoError(t, inv.Hold(ctx, key, []string{"1A"}, other.ID, time.Minute))
}

func TestValidateForCommit(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, _ := testManager(t, schedule, 8)
	ctx := context.Background()

	s := manager.Begin()
	search := validSearch()
	search.Adults = 1
	search.Children = 0
	require.NoError(t, s.SetSearch(ctx, search))
	require.NoError(t, s.SelectScheduleAndClass(ctx, schedule, "economy"))
	require.NoError(t, s.SelectSeats(ctx, []string{"1A"}))
	require.NoError(t, s.BuildRoster())

	assert.ErrorIs(t, s.ValidateForCommit(), ErrIncompleteRoster)

	require.NoError(t, s.SetPassenger(0, Passenger{Name: "Siti Rahma", IDNumber: "3201234567890001"}))
	assert.ErrorIs(t, s.ValidateForCommit(), ErrIncompleteRoster)

	require.NoError(t, s.SetContact(Contact{Name: "Siti Rahma", Email: "siti@example.com", Phone: "081234567890"}))
	assert.NoError(t, s.ValidateForCommit())
}

func TestClearBooking_ReleasesHolds(t *testing.T) {
	schedule := testSchedule(t, 8, 8)
	manager, inv := testManager(t, schedule, 8)
	ctx := context.Background()
	key := inventory.Key{ScheduleID: schedule.ID.String(), Class: "economy"}

	s := manager.Begin()
	search := validSearch()
	search.Adults = 2
	search.Children = 0
	require.NoError(t, s.SetSearch(ctx, search))
	require.NoError(t, s.SelectScheduleAndClass(ctx, schedule, "economy"))
	require.NoError(t, s.SelectSeats(ctx, []string{"1A", "1B"}))

	require.NoError(t, manager.ClearBooking(ctx, s.ID))

	_, err := manager.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	other := manager.Begin()
	require.NoError(t, inv.Hold(ctx, key, []string{"1A", "1B"}, other.ID, time.Minute))
}
