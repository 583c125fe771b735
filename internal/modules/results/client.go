package results

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client fetches result payloads from the flowsheet-processing service.
// Payloads are fetched fresh on every render pass; nothing is cached here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new results client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("component", "results_client").Logger(),
	}
}

// Fetch retrieves the current result payload for a flowsheet run.
// A 404 from the service means no result exists yet; that is returned as a
// nil payload, which renders as the empty state.
func (c *Client) Fetch(ctx context.Context, flowsheetID string) (*ResultPayload, error) {
	u := fmt.Sprintf("%s/api/flowsheets/%s/results", c.baseURL, url.PathEscape(flowsheetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create results request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug().Str("flowsheet_id", flowsheetID).Msg("No results available yet")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("solver service returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload ResultPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode result payload: %w", err)
	}

	c.log.Debug().
		Str("flowsheet_id", flowsheetID).
		Int("sections", len(payload.Output)).
		Msg("Fetched result payload")

	return &payload, nil
}
