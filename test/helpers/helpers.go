// Package helpers provides shared test fixtures: an in-memory database with
// the full schema, seeded domain entities, and fakes for the broker seam.
package helpers

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/database"
)

// NewTestDB opens a fresh in-memory sqlite database with the full schema
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewTestConnection()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// SeedVehicle persists an available standard reefer
func SeedVehicle(t *testing.T, db *gorm.DB, plate string) *fleet.Vehicle {
	t.Helper()
	v, err := fleet.NewVehicle(
		uuid.Nil, plate, 1000, 12,
		fleet.InsulationStandard, fleet.DoorRoll, false,
		-2.5, -20, fleet.VehicleAvailable,
	)
	require.NoError(t, err)
	require.NoError(t, persistence.NewVehicleRepository(db).Save(context.Background(), v))
	return v
}

// SeedShipment persists a pending standard-tier shipment with an 08:00-12:00
// window
func SeedShipment(t *testing.T, db *gorm.DB, order string, lat, lon, weight float64) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewShipment(
		uuid.Nil, order, "No. 100, Roosevelt Road", lat, lon,
		[]shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
		shipment.SLAStandard, 5.0, nil, 15, weight, nil, 50,
	)
	require.NoError(t, err)
	require.NoError(t, persistence.NewShipmentRepository(db).Save(context.Background(), s))
	return s
}

// SeedDepot persists an active depot in central Taipei
func SeedDepot(t *testing.T, db *gorm.DB) *depot.Depot {
	t.Helper()
	d, err := depot.NewDepot(uuid.Nil, "Main Depot", "Taipei Main Station", 25.0330, 121.5654)
	require.NoError(t, err)
	require.NoError(t, persistence.NewDepotRepository(db).Save(context.Background(), d))
	return d
}

// EnqueueCall records one broker submission
type EnqueueCall struct {
	JobID            uuid.UUID
	TimeLimitSeconds int
}

// FakeQueue implements planning.TaskQueue in memory
type FakeQueue struct {
	mu         sync.Mutex
	Enqueued   []EnqueueCall
	Cancelled  []string
	EnqueueErr error
}

func (q *FakeQueue) EnqueueOptimization(_ context.Context, jobID uuid.UUID, timeLimitSeconds int) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.EnqueueErr != nil {
		return "", q.EnqueueErr
	}
	q.Enqueued = append(q.Enqueued, EnqueueCall{JobID: jobID, TimeLimitSeconds: timeLimitSeconds})
	return jobID.String(), nil
}

func (q *FakeQueue) CancelOptimization(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Cancelled = append(q.Cancelled, taskID)
	return nil
}
