package shipment_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

func newTestShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewShipment(
		uuid.Nil,
		"ORD-001",
		"100 Market St",
		25.0478,
		121.5170,
		[]shipment.TimeWindow{{Start: "08:00", End: "12:00"}},
		shipment.SLAStandard,
		5.0,
		nil,
		15,
		50.0,
		nil,
		50,
	)
	require.NoError(t, err)
	return s
}

func TestNewShipment_Defaults(t *testing.T) {
	s, err := shipment.NewShipment(
		uuid.Nil, "ORD-002", "addr", 0, 0, nil, "", 5.0, nil, 0, 10.0, nil, 0,
	)

	require.NoError(t, err)
	assert.Equal(t, shipment.SLAStandard, s.SLATier())
	assert.Equal(t, shipment.DefaultServiceMinutes, s.ServiceDuration())
	assert.Equal(t, shipment.StatusPending, s.Status())
	require.Len(t, s.TimeWindows(), 1)
	assert.Equal(t, "08:00", s.TimeWindows()[0].Start)
	assert.Equal(t, 1, s.PackageCount())
}

func TestNewShipment_Validation(t *testing.T) {
	windows := []shipment.TimeWindow{{Start: "08:00", End: "12:00"}}

	_, err := shipment.NewShipment(uuid.Nil, "", "addr", 0, 0, windows, shipment.SLAStandard, 5, nil, 15, 10, nil, 0)
	assert.Error(t, err)

	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 91, 0, windows, shipment.SLAStandard, 5, nil, 15, 10, nil, 0)
	assert.Error(t, err)

	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 0, -181, windows, shipment.SLAStandard, 5, nil, 15, 10, nil, 0)
	assert.Error(t, err)

	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 0, 0, windows, shipment.SLAStandard, 5, nil, 200, 10, nil, 0)
	assert.Error(t, err)

	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 0, 0, windows, shipment.SLAStandard, 5, nil, 15, 0, nil, 0)
	assert.Error(t, err)

	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 0, 0, windows, shipment.SLAStandard, 5, nil, 15, 10, nil, 101)
	assert.Error(t, err)

	lower := 8.0
	_, err = shipment.NewShipment(uuid.Nil, "O-1", "addr", 0, 0, windows, shipment.SLAStandard, 5, &lower, 15, 10, nil, 0)
	assert.Error(t, err)
}

func TestAssignToRoute(t *testing.T) {
	s := newTestShipment(t)
	routeID := uuid.New()

	err := s.AssignToRoute(routeID, 2)

	require.NoError(t, err)
	assert.Equal(t, shipment.StatusAssigned, s.Status())
	require.NotNil(t, s.RouteID())
	assert.Equal(t, routeID, *s.RouteID())
	require.NotNil(t, s.RouteSequence())
	assert.Equal(t, 2, *s.RouteSequence())

	// A second assignment must be rejected
	err = s.AssignToRoute(uuid.New(), 1)
	assert.Error(t, err)
}

func TestResetToPending(t *testing.T) {
	s := newTestShipment(t)
	require.NoError(t, s.AssignToRoute(uuid.New(), 1))

	s.ResetToPending()

	assert.Equal(t, shipment.StatusPending, s.Status())
	assert.Nil(t, s.RouteID())
	assert.Nil(t, s.RouteSequence())
}

func TestArrivalOnTime_MultiWindowDisjunction(t *testing.T) {
	s := newTestShipment(t)
	require.NoError(t, s.SetTimeWindows([]shipment.TimeWindow{
		{Start: "08:00", End: "09:00"},
		{Start: "14:00", End: "15:00"},
	}))

	assert.True(t, s.ArrivalOnTime(500))
	assert.True(t, s.ArrivalOnTime(850))
	// In the gap between windows: not on time even though inside the hull
	assert.False(t, s.ArrivalOnTime(700))
}

func TestTemperatureCompliant(t *testing.T) {
	s := newTestShipment(t)

	assert.True(t, s.TemperatureCompliant(4.9))
	assert.True(t, s.TemperatureCompliant(-20.0))
	assert.False(t, s.TemperatureCompliant(5.1))
}
