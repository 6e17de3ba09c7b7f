package shipment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		value   string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"06:00", 360, true},
		{"08:30", 510, true},
		{"23:59", 1439, true},
		{"24:00", 1440, true},
		{"8:00", 480, true},
		{"25:00", 0, false},
		{"08:60", 0, false},
		{"nope", 0, false},
		{"08-00", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			minutes, err := shipment.ParseClock(tc.value)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.minutes, minutes)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestFormatClock_RoundTrips(t *testing.T) {
	assert.Equal(t, "06:00", shipment.FormatClock(360))
	assert.Equal(t, "23:59", shipment.FormatClock(1439))
	assert.Equal(t, "00:05", shipment.FormatClock(5))
}

func TestTimeWindow_Validate(t *testing.T) {
	assert.NoError(t, shipment.TimeWindow{Start: "08:00", End: "12:00"}.Validate())
	assert.Error(t, shipment.TimeWindow{Start: "12:00", End: "08:00"}.Validate())
	assert.Error(t, shipment.TimeWindow{Start: "08:00", End: "08:00"}.Validate())
	assert.Error(t, shipment.TimeWindow{Start: "busy", End: "08:00"}.Validate())
}

func TestTimeWindow_Contains(t *testing.T) {
	w := shipment.TimeWindow{Start: "08:00", End: "10:00"}

	assert.True(t, w.Contains(480))
	assert.True(t, w.Contains(600))
	assert.True(t, w.Contains(545))
	assert.False(t, w.Contains(479))
	assert.False(t, w.Contains(601))
}

func TestUnionHull_SpansAllWindows(t *testing.T) {
	windows := []shipment.TimeWindow{
		{Start: "14:00", End: "16:00"},
		{Start: "08:00", End: "10:00"},
	}

	start, end := shipment.UnionHull(windows)

	assert.Equal(t, 480, start)
	assert.Equal(t, 960, end)
}

func TestUnionHull_EmptyDefaultsToFullDay(t *testing.T) {
	start, end := shipment.UnionHull(nil)

	assert.Equal(t, 0, start)
	assert.Equal(t, 1440, end)
}

func TestEnclosingWindowIndex(t *testing.T) {
	windows := []shipment.TimeWindow{
		{Start: "08:00", End: "09:00"},
		{Start: "14:00", End: "15:00"},
	}

	assert.Equal(t, 0, shipment.EnclosingWindowIndex(windows, 500))
	assert.Equal(t, 1, shipment.EnclosingWindowIndex(windows, 870))
	// Arrivals inside the hull gap fall back to the first window
	assert.Equal(t, 0, shipment.EnclosingWindowIndex(windows, 700))
}
