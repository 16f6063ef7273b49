package model_test

import (
	"testing"
	"time"

	"forecast-pipeline/internal/pipeline/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourlySeries builds len hourly readings for area starting at start, where the value of
// reading i is base+i. Linear in time, so every lag is distinguishable.
func hourlySeries(area string, start time.Time, length int, base float64) []model.ConsumptionReading {
	readings := make([]model.ConsumptionReading, 0, length)
	for i := 0; i < length; i++ {
		readings = append(readings, model.ConsumptionReading{
			Area:           area,
			Timestamp:      start.Add(time.Duration(i) * time.Hour),
			ConsumptionKWh: base + float64(i),
		})
	}
	return readings
}

func TestBuildFeatureRowsComputesLags(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := hourlySeries("oslo", start, 8*24, 0)

	rows := model.BuildFeatureRows(readings)
	// The first week has no weekly lag, so only the final day survives.
	require.Len(t, rows, 24)

	first := rows[0]
	assert.Equal(t, "oslo", first.Area)
	assert.Equal(t, start.Add(168*time.Hour), first.Timestamp)
	assert.Equal(t, float64(168), first.ConsumptionKWh)
	assert.Equal(t, float64(168-model.LagDayHours), first.LagDayKWh)
	assert.Equal(t, float64(168-model.LagWeekHours), first.LagWeekKWh)
	// Mean of the previous 24 values 144..167.
	assert.InDelta(t, 155.5, first.RollingDayMean, 1e-9)
	assert.Equal(t, first.Timestamp.Hour(), first.HourOfDay)
	assert.Equal(t, int(first.Timestamp.Weekday()), first.DayOfWeek)
}

func TestBuildFeatureRowsOrdersByAreaThenTime(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	var readings []model.ConsumptionReading
	readings = append(readings, hourlySeries("oslo", start, 8*24, 100)...)
	readings = append(readings, hourlySeries("bergen", start, 8*24, 200)...)

	rows := model.BuildFeatureRows(readings)
	require.Len(t, rows, 48)

	for i := 0; i < 24; i++ {
		assert.Equal(t, "bergen", rows[i].Area)
	}
	for i := 24; i < 48; i++ {
		assert.Equal(t, "oslo", rows[i].Area)
	}
	for i := 1; i < 24; i++ {
		assert.True(t, rows[i].Timestamp.After(rows[i-1].Timestamp))
	}
}

func TestBuildFeatureRowsDropsShortHistory(t *testing.T) {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)

	// Six days is less than the weekly lag: nothing can be emitted.
	rows := model.BuildFeatureRows(hourlySeries("oslo", start, 6*24, 0))
	assert.Empty(t, rows)

	assert.Empty(t, model.BuildFeatureRows(nil))
}

func TestTimeWindowValidate(t *testing.T) {
	start := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, model.TimeWindow{Start: start, End: start.Add(24 * time.Hour)}.Validate())
	assert.Error(t, model.TimeWindow{}.Validate())
	assert.Error(t, model.TimeWindow{Start: start, End: start}.Validate())
	assert.Error(t, model.TimeWindow{Start: start.Add(30 * time.Minute), End: start.Add(2 * time.Hour)}.Validate())
}

func TestLastHours(t *testing.T) {
	ref := time.Date(2023, 4, 15, 10, 42, 17, 0, time.UTC)
	window := model.LastHours(ref, 720)

	assert.Equal(t, time.Date(2023, 4, 15, 10, 0, 0, 0, time.UTC), window.End)
	assert.Equal(t, window.End.Add(-720*time.Hour), window.Start)
	assert.NoError(t, window.Validate())
	assert.Equal(t, 720, window.Hours())
}
