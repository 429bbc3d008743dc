package routes

import (
	"context"
	"testing"

	"shipline/internal/catalog"
	"shipline/internal/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalogRepo struct {
	catalog.Repository
	offerings []catalog.ClassOffering
}

func (s *stubCatalogRepo) ListOfferings(_ context.Context) ([]catalog.ClassOffering, error) {
	return s.offerings, nil
}

func TestProvisionMemoryPools(t *testing.T) {
	scheduleID := uuid.New()
	repo := &stubCatalogRepo{offerings: []catalog.ClassOffering{
		{ScheduleID: scheduleID, Class: "economy", SeatCapacity: 8},
		{ScheduleID: scheduleID, Class: "business", SeatCapacity: 4},
	}}

	store := inventory.NewMemoryStore()
	require.NoError(t, provisionMemoryPools(store, repo))

	economy, err := store.Snapshot(context.Background(), inventory.Key{ScheduleID: scheduleID.String(), Class: "economy"})
	require.NoError(t, err)
	require.Len(t, economy.Seats, 8)
	for _, seat := range economy.Seats {
		assert.Equal(t, inventory.SeatAvailable, seat.State)
	}

	business, err := store.Snapshot(context.Background(), inventory.Key{ScheduleID: scheduleID.String(), Class: "business"})
	require.NoError(t, err)
	assert.Len(t, business.Seats, 4)
}
