package places

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))
		assert.Equal(t, "hotel in Cartagena", r.URL.Query().Get("query"))
		assert.Empty(t, r.URL.Query().Get("pagetoken"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"next_page_token": "token-page-2",
			"results": [
				{
					"place_id": "place-abc123",
					"name": "Hotel Caribe",
					"formatted_address": "Cra 1 #2-87, Bocagrande, Cartagena",
					"geometry": {"location": {"lat": 10.3997, "lng": -75.5547}},
					"types": ["lodging", "point_of_interest"]
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "token-page-2", resp.NextPageToken)

	result := resp.Results[0]
	assert.Equal(t, "place-abc123", result.PlaceID)
	assert.Equal(t, "Hotel Caribe", result.Name)
	assert.Equal(t, "Cra 1 #2-87, Bocagrande, Cartagena", result.FormattedAddress)
	assert.InDelta(t, 10.3997, result.Geometry.Location.Lat, 0.0001)
	assert.InDelta(t, -75.5547, result.Geometry.Location.Lng, 0.0001)
	assert.Contains(t, result.Types, "lodging")
}

func TestTextSearch_PageToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A page token request carries the token instead of the query.
		assert.Equal(t, "token-page-2", r.URL.Query().Get("pagetoken"))
		assert.Empty(t, r.URL.Query().Get("query"))

		w.Write([]byte(`{"status": "OK", "results": []}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "token-page-2")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.NextPageToken)
}

func TestTextSearch_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Nowhere", "")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestTextSearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "")
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestTextSearch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "")
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestTextSearch_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "results": [`))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "")
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "failed to parse places response")
}

func TestTextSearch_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient("test-api-key", server.URL)

	resp, err := client.TextSearch("hotel in Cartagena", "")
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "places request failed")
}
