package configurations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client communicates with the flowsheet-processing service that stores
// configurations. Only the request/response contract matters here; the
// response body is treated as opaque confirmation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new configuration save client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "config_client").Logger(),
	}
}

// SaveConfig requests persistence of a configuration name for a flowsheet
// run. Exactly one request per invocation; no retry, no debounce.
func (c *Client) SaveConfig(ctx context.Context, flowsheetID, name string) error {
	reqBody, err := json.Marshal(SaveRequest{Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal save request: %w", err)
	}

	u := fmt.Sprintf("%s/api/flowsheets/%s/configs", c.baseURL, url.PathEscape(flowsheetID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create save request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send save request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("config service returned status %d: %s", resp.StatusCode, string(body))
	}

	// Drain the confirmation body; its schema is not part of the contract.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug().
		Str("flowsheet_id", flowsheetID).
		Str("name", name).
		Float64("elapsed_seconds", time.Since(startTime).Seconds()).
		Msg("Configuration save confirmed")

	return nil
}
