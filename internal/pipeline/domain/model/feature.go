package model

import (
	"sort"
	"time"
)

// Lag offsets used by the feature set, in hours. 24 captures daily seasonality, 168
// weekly.
const (
	LagDayHours  = 24
	LagWeekHours = 168
)

// FeatureRow is one engineered feature vector for (area, hour)
type FeatureRow struct {
	Area           string    `json:"area" bson:"area"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	ConsumptionKWh float64   `json:"consumption_kwh" bson:"consumption_kwh"`
	LagDayKWh      float64   `json:"lag_day_kwh" bson:"lag_day_kwh"`
	LagWeekKWh     float64   `json:"lag_week_kwh" bson:"lag_week_kwh"`
	RollingDayMean float64   `json:"rolling_day_mean" bson:"rolling_day_mean"`
	HourOfDay      int       `json:"hour_of_day" bson:"hour_of_day"`
	DayOfWeek      int       `json:"day_of_week" bson:"day_of_week"`
}

// BuildFeatureRows derives lag and rolling-window features per area from raw hourly
// readings. Rows without a full week of history are dropped, so every emitted row has
// all lags populated. Output is ordered by (area, timestamp).
func BuildFeatureRows(readings []ConsumptionReading) []FeatureRow {
	byArea := make(map[string][]ConsumptionReading)
	for _, r := range readings {
		byArea[r.Area] = append(byArea[r.Area], r)
	}

	areas := make([]string, 0, len(byArea))
	for area := range byArea {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	var rows []FeatureRow
	for _, area := range areas {
		series := byArea[area]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})

		byHour := make(map[time.Time]float64, len(series))
		for _, r := range series {
			byHour[r.Timestamp.UTC().Truncate(time.Hour)] = r.ConsumptionKWh
		}

		for _, r := range series {
			ts := r.Timestamp.UTC().Truncate(time.Hour)

			lagDay, okDay := byHour[ts.Add(-LagDayHours*time.Hour)]
			lagWeek, okWeek := byHour[ts.Add(-LagWeekHours*time.Hour)]
			if !okDay || !okWeek {
				continue
			}

			var sum float64
			var n int
			for h := 1; h <= LagDayHours; h++ {
				if v, ok := byHour[ts.Add(-time.Duration(h)*time.Hour)]; ok {
					sum += v
					n++
				}
			}
			if n == 0 {
				continue
			}

			rows = append(rows, FeatureRow{
				Area:           area,
				Timestamp:      ts,
				ConsumptionKWh: r.ConsumptionKWh,
				LagDayKWh:      lagDay,
				LagWeekKWh:     lagWeek,
				RollingDayMean: sum / float64(n),
				HourOfDay:      ts.Hour(),
				DayOfWeek:      int(ts.Weekday()),
			})
		}
	}
	return rows
}
