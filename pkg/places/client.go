// Package places is a minimal Google Places Web Service client covering
// the Text Search endpoint used by the import pipeline.
package places

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Statuses returned by the Places API that are not errors
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Client calls the Google Places Web Service
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient creates a new Places client
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Location is a latitude/longitude pair
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry holds the location of a place result
type Geometry struct {
	Location Location `json:"location"`
}

// SearchResult is a single place returned by Text Search
type SearchResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
	Types            []string `json:"types"`
}

// SearchResponse is the Text Search response envelope
type SearchResponse struct {
	Status        string         `json:"status"`
	Results       []SearchResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
	ErrorMessage  string         `json:"error_message"`
}

// TextSearch runs a Places Text Search query. Pass the next_page_token of a
// previous response to fetch the following page; the API needs a short
// delay before a fresh token becomes usable.
func (c *Client) TextSearch(query, pageToken string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	} else {
		params.Set("query", query)
	}

	endpoint := fmt.Sprintf("%s/textsearch/json?%s", c.baseURL, params.Encode())

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read places response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var search SearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("failed to parse places response: %w", err)
	}

	if search.Status != statusOK && search.Status != statusZeroResults {
		if search.ErrorMessage != "" {
			return nil, fmt.Errorf("places API error: %s (%s)", search.Status, search.ErrorMessage)
		}
		return nil, fmt.Errorf("places API error: %s", search.Status)
	}

	return &search, nil
}
