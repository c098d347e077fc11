// Package fred implements the macro data source against the FRED
// (Federal Reserve Economic Data) REST API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
	"github.com/bobmcallan/nestegg/internal/interfaces"
	"github.com/bobmcallan/nestegg/internal/models"
)

// Client fetches series observations from api.stlouisfed.org.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
}

var _ interfaces.MacroSource = (*Client)(nil)

// New creates a FRED client from config.
func New(cfg *common.FREDConfig, logger *common.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		logger:     logger,
	}
}

// observation values arrive as strings; "." marks a missing data point.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetLatestObservation returns the newest valid data point of a series with
// the prior point and their difference. observations bounds the window
// scanned for valid points (daily series carry "." gaps on non-trading
// days); values below 2 are raised to 2 so a change can be computed.
func (c *Client) GetLatestObservation(ctx context.Context, seriesID string, observations int) (*models.EconomicObservation, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred api key not configured")
	}
	if observations < 2 {
		observations = 2
	}

	query := url.Values{
		"series_id":  []string{seriesID},
		"api_key":    []string{c.apiKey},
		"file_type":  []string{"json"},
		"sort_order": []string{"desc"},
		"limit":      []string{strconv.Itoa(observations)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/series/observations?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach fred: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fred returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed observationsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// newest first; collect the first two parseable values
	result := &models.EconomicObservation{SeriesID: seriesID}
	found := 0
	for _, obs := range parsed.Observations {
		if obs.Value == "." {
			continue
		}
		value, perr := strconv.ParseFloat(obs.Value, 64)
		if perr != nil {
			continue
		}
		switch found {
		case 0:
			result.Value = value
			result.Date = obs.Date
		case 1:
			result.Previous = value
			result.Change = result.Value - value
		}
		found++
		if found == 2 {
			break
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("series %s has no valid observations", seriesID)
	}
	return result, nil
}
