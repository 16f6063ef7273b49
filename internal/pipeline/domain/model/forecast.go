package model

import (
	"fmt"
	"time"
)

// HoursPerWeek is the size of the hour-of-week seasonal profile
const HoursPerWeek = 168

// ForecastModel is a seasonal-naive baseline: the mean consumption per
// (area, hour-of-week) over the training feature set. Deliberately thin; the pipeline's
// value is the coordination contract, not the estimator.
type ForecastModel struct {
	Name           string               `json:"name"`
	FeatureGroup   string               `json:"feature_group"`
	FeatureVersion int64                `json:"feature_version"`
	TrainedAt      time.Time            `json:"trained_at"`
	Profiles       map[string][]float64 `json:"profiles"`
}

// hourOfWeek maps a timestamp to [0, 168) with Monday 00:00 as zero
func hourOfWeek(ts time.Time) int {
	ts = ts.UTC()
	day := (int(ts.Weekday()) + 6) % 7
	return day*24 + ts.Hour()
}

// TrainSeasonalNaive fits the hour-of-week profile per area from feature rows
func TrainSeasonalNaive(name, featureGroup string, featureVersion int64, rows []FeatureRow) (*ForecastModel, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("training requires at least one feature row")
	}

	sums := make(map[string][]float64)
	counts := make(map[string][]int)
	for _, row := range rows {
		if sums[row.Area] == nil {
			sums[row.Area] = make([]float64, HoursPerWeek)
			counts[row.Area] = make([]int, HoursPerWeek)
		}
		h := hourOfWeek(row.Timestamp)
		sums[row.Area][h] += row.ConsumptionKWh
		counts[row.Area][h]++
	}

	profiles := make(map[string][]float64, len(sums))
	for area, sum := range sums {
		profile := make([]float64, HoursPerWeek)
		var areaSum float64
		var areaCount int
		for h := range sum {
			areaSum += sum[h]
			areaCount += counts[area][h]
		}
		areaMean := 0.0
		if areaCount > 0 {
			areaMean = areaSum / float64(areaCount)
		}
		for h := range sum {
			if counts[area][h] > 0 {
				profile[h] = sum[h] / float64(counts[area][h])
			} else {
				// Hours never observed fall back to the area mean.
				profile[h] = areaMean
			}
		}
		profiles[area] = profile
	}

	return &ForecastModel{
		Name:           name,
		FeatureGroup:   featureGroup,
		FeatureVersion: featureVersion,
		TrainedAt:      time.Now().UTC(),
		Profiles:       profiles,
	}, nil
}

// Validate checks the model artifact for structural integrity
func (m *ForecastModel) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("forecast model: name is required")
	}
	if len(m.Profiles) == 0 {
		return fmt.Errorf("forecast model: no per-area profiles")
	}
	for area, profile := range m.Profiles {
		if len(profile) != HoursPerWeek {
			return fmt.Errorf("forecast model: area %q profile has %d entries, want %d", area, len(profile), HoursPerWeek)
		}
	}
	return nil
}

// ForecastPoint is one predicted hourly value
type ForecastPoint struct {
	Area         string    `json:"area"`
	Timestamp    time.Time `json:"timestamp"`
	PredictedKWh float64   `json:"predicted_kwh"`
	Model        string    `json:"model"`
	ModelVersion int64     `json:"model_version"`
}

// Forecast predicts the given window for one area
func (m *ForecastModel) Forecast(area string, modelVersion int64, window TimeWindow) ([]ForecastPoint, error) {
	profile, ok := m.Profiles[area]
	if !ok {
		return nil, fmt.Errorf("forecast model %q has no profile for area %q", m.Name, area)
	}

	points := make([]ForecastPoint, 0, window.Hours())
	for ts := window.Start; ts.Before(window.End); ts = ts.Add(time.Hour) {
		points = append(points, ForecastPoint{
			Area:         area,
			Timestamp:    ts,
			PredictedKWh: profile[hourOfWeek(ts)],
			Model:        m.Name,
			ModelVersion: modelVersion,
		})
	}
	return points, nil
}

// Areas lists the areas the model can forecast, sorted for determinism by callers that
// need it
func (m *ForecastModel) Areas() []string {
	areas := make([]string, 0, len(m.Profiles))
	for area := range m.Profiles {
		areas = append(areas, area)
	}
	return areas
}
