package shipment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andrescamacho/coldroute-go/internal/domain/shared"
)

// TimeWindow is one acceptable delivery interval on the plan date, stored as
// wall-clock "HH:MM" strings. A shipment carries one or more windows; arrival
// inside any one of them counts as on time.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseClock converts "HH:MM" to minutes from midnight
func ParseClock(value string) (int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock converts minutes from midnight to "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Validate checks the window parses and runs forward
func (w TimeWindow) Validate() error {
	start, err := ParseClock(w.Start)
	if err != nil {
		return shared.NewValidationError("time_windows", err.Error())
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return shared.NewValidationError("time_windows", err.Error())
	}
	if start >= end {
		return shared.NewValidationError("time_windows", fmt.Sprintf("window %s-%s must run forward", w.Start, w.End))
	}
	return nil
}

// StartMinutes returns the window opening as minutes from midnight.
// The window must have been validated first.
func (w TimeWindow) StartMinutes() int {
	minutes, _ := ParseClock(w.Start)
	return minutes
}

// EndMinutes returns the window closing as minutes from midnight
func (w TimeWindow) EndMinutes() int {
	minutes, _ := ParseClock(w.End)
	return minutes
}

// Contains reports whether an arrival (minutes from midnight) falls inside
// the window
func (w TimeWindow) Contains(arrivalMinutes int) bool {
	return arrivalMinutes >= w.StartMinutes() && arrivalMinutes <= w.EndMinutes()
}

// DurationMinutes returns the window length
func (w TimeWindow) DurationMinutes() int {
	return w.EndMinutes() - w.StartMinutes()
}

func (w TimeWindow) String() string {
	return w.Start + "-" + w.End
}

// UnionHull returns the [earliest start, latest end] envelope of a window
// set, in minutes from midnight. Multi-window shipments are solved against
// the hull; the materializer records which window the arrival actually hit.
func UnionHull(windows []TimeWindow) (int, int) {
	if len(windows) == 0 {
		return 0, 24 * 60
	}
	start := windows[0].StartMinutes()
	end := windows[0].EndMinutes()
	for _, w := range windows[1:] {
		if s := w.StartMinutes(); s < start {
			start = s
		}
		if e := w.EndMinutes(); e > end {
			end = e
		}
	}
	return start, end
}

// EnclosingWindowIndex returns the index of the first window containing the
// arrival, or 0 when none does
func EnclosingWindowIndex(windows []TimeWindow, arrivalMinutes int) int {
	for i, w := range windows {
		if w.Contains(arrivalMinutes) {
			return i
		}
	}
	return 0
}
