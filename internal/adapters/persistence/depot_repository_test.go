package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/adapters/persistence"
	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
	"github.com/andrescamacho/coldroute-go/test/helpers"
)

func TestDepotRepository_FindActive(t *testing.T) {
	db := helpers.NewTestDB(t)
	depots := persistence.NewDepotRepository(db)

	_, err := depots.FindActive(context.Background())
	var notFound *shared.NotFoundError
	require.ErrorAs(t, err, &notFound)

	seeded := helpers.SeedDepot(t, db)

	active, err := depots.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seeded.ID(), active.ID())
	assert.Equal(t, "Main Depot", active.Name())
	assert.InDelta(t, 25.0330, active.Latitude(), 1e-9)
}

func TestDepotRepository_DeactivationSticks(t *testing.T) {
	db := helpers.NewTestDB(t)
	seeded := helpers.SeedDepot(t, db)
	depots := persistence.NewDepotRepository(db)

	seeded.SetActive(false)
	require.NoError(t, depots.Save(context.Background(), seeded))

	_, err := depots.FindActive(context.Background())
	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	all, err := depots.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active())
}

func TestDepotRepository_SaveUpdatesLocation(t *testing.T) {
	db := helpers.NewTestDB(t)
	seeded := helpers.SeedDepot(t, db)
	depots := persistence.NewDepotRepository(db)

	require.NoError(t, seeded.SetLocation(24.1477, 120.6736, "Taichung Hub"))
	require.NoError(t, depots.Save(context.Background(), seeded))

	stored, err := depots.FindByID(context.Background(), seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, "Taichung Hub", stored.Address())
	assert.InDelta(t, 24.1477, stored.Latitude(), 1e-9)
}

func TestDepotRepository_DeleteUnknown(t *testing.T) {
	db := helpers.NewTestDB(t)

	err := persistence.NewDepotRepository(db).Delete(context.Background(), uuid.New())

	var notFound *shared.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDepotRepository_Roundtrip(t *testing.T) {
	db := helpers.NewTestDB(t)
	d, err := depot.NewDepot(uuid.Nil, "South Hub", "Kaohsiung Port", 22.6163, 120.3133)
	require.NoError(t, err)

	depots := persistence.NewDepotRepository(db)
	require.NoError(t, depots.Save(context.Background(), d))

	stored, err := depots.FindByID(context.Background(), d.ID())
	require.NoError(t, err)
	assert.Equal(t, d.ID(), stored.ID())
	assert.Equal(t, "South Hub", stored.Name())
	assert.True(t, stored.Active())
}
