package model

import (
	"fmt"
	"time"
)

// ConsumptionReading is one hourly energy consumption observation from the upstream
// source.
type ConsumptionReading struct {
	Area           string    `json:"area"`
	Timestamp      time.Time `json:"timestamp"`
	ConsumptionKWh float64   `json:"consumption_kwh"`
}

// TimeWindow is a half-open [Start, End) hourly time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks that the window is non-empty and hour-aligned
func (w TimeWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("time window: bounds are required")
	}
	if !w.End.After(w.Start) {
		return fmt.Errorf("time window: end %s is not after start %s", w.End, w.Start)
	}
	if !w.Start.Equal(w.Start.Truncate(time.Hour)) || !w.End.Equal(w.End.Truncate(time.Hour)) {
		return fmt.Errorf("time window: bounds must be hour-aligned")
	}
	return nil
}

// Hours returns the number of whole hours covered by the window
func (w TimeWindow) Hours() int {
	return int(w.End.Sub(w.Start) / time.Hour)
}

// LastHours builds an hour-aligned window covering the n hours ending at ref
func LastHours(ref time.Time, n int) TimeWindow {
	end := ref.UTC().Truncate(time.Hour)
	return TimeWindow{
		Start: end.Add(-time.Duration(n) * time.Hour),
		End:   end,
	}
}
