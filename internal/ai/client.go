package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the external AI service (anomaly scoring, address
// labeling, forecasting, risk scoring) over its REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UpstreamError carries the AI service's status and body for diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai service returned status %d: %s", e.StatusCode, e.Body)
}

// AnomalyResult mirrors the service's anomaly response.
type AnomalyResult struct {
	Score     float64 `json:"score"`
	IsAnomaly bool    `json:"is_anomaly"`
	Message   string  `json:"message"`
}

// Anomaly scores the last value of a numeric series against the rest.
func (c *Client) Anomaly(ctx context.Context, values []float64, threshold float64) (*AnomalyResult, error) {
	payload := map[string]interface{}{
		"values":    values,
		"threshold": threshold,
	}

	body, err := c.post(ctx, "/anomaly", payload)
	if err != nil {
		return nil, fmt.Errorf("ai anomaly: %w", err)
	}

	var result AnomalyResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ai anomaly decode: %w", err)
	}
	return &result, nil
}

// Label classifies a blockchain address. The response is passed through to
// the caller verbatim.
func (c *Client) Label(ctx context.Context, address, chain string) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"address": address,
	}
	if chain != "" {
		payload["chain"] = chain
	}

	body, err := c.post(ctx, "/label", payload)
	if err != nil {
		return nil, fmt.Errorf("ai label: %w", err)
	}
	return body, nil
}

// Forecast extrapolates a numeric series over the given horizon.
func (c *Client) Forecast(ctx context.Context, values []float64, horizon int) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"values":  values,
		"horizon": horizon,
	}

	body, err := c.post(ctx, "/forecast_series", payload)
	if err != nil {
		return nil, fmt.Errorf("ai forecast: %w", err)
	}
	return body, nil
}

// RiskScores returns compliance risk information for the given addresses.
func (c *Client) RiskScores(ctx context.Context, addresses []string) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"addresses": addresses,
	}

	body, err := c.post(ctx, "/risk_scores", payload)
	if err != nil {
		return nil, fmt.Errorf("ai risk scores: %w", err)
	}
	return body, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
