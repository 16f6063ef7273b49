package energyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"forecast-pipeline/internal/pipeline/domain/model"
	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"
)

// Client fetches hourly consumption readings from the upstream energy data API.
// Failures here are always retryable: the orchestrator re-runs the feature job on its
// own schedule.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates an upstream API client. apiKey may be empty for public endpoints.
func NewClient(baseURL, apiKey string, log logger.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, apperrors.NewValidationError("upstream base URL is required")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithComponent("upstream.energyapi"),
	}, nil
}

type readingsResponse struct {
	Records []struct {
		Area           string    `json:"area"`
		Timestamp      time.Time `json:"timestamp"`
		ConsumptionKWh float64   `json:"consumption_kwh"`
	} `json:"records"`
}

// FetchReadings returns the hourly readings inside window
func (c *Client) FetchReadings(ctx context.Context, window model.TimeWindow) ([]model.ConsumptionReading, error) {
	if err := window.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	endpoint := fmt.Sprintf("%s/v1/consumption?%s", c.baseURL, url.Values{
		"start": []string{window.Start.Format(time.RFC3339)},
		"end":   []string{window.End.Format(time.RFC3339)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build upstream request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("upstream request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamUnavailableError(
			fmt.Sprintf("upstream returned status %d", resp.StatusCode)).
			WithDetail("status", resp.StatusCode)
	}

	var payload readingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("failed to decode upstream response").WithCause(err)
	}

	readings := make([]model.ConsumptionReading, 0, len(payload.Records))
	for _, rec := range payload.Records {
		readings = append(readings, model.ConsumptionReading{
			Area:           rec.Area,
			Timestamp:      rec.Timestamp.UTC(),
			ConsumptionKWh: rec.ConsumptionKWh,
		})
	}

	c.log.Debugf("Fetched %d readings for window %s..%s", len(readings), window.Start, window.End)
	return readings, nil
}
