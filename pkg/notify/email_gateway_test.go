package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(serverURL string) *EmailGateway {
	return NewEmailGateway(EmailConfig{
		APIURL: serverURL,
		APIKey: "test-api-key",
		From:   "no-reply@numtrip.com",
	})
}

func TestSendVerificationCode_Success(t *testing.T) {
	var received sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Write([]byte(`{"id": "msg-001", "status": "queued"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	err := gateway.SendVerificationCode("reservas@hotelcaribe.co", "482913", "Hotel Caribe")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@numtrip.com", received.From)
	assert.Equal(t, "reservas@hotelcaribe.co", received.To)
	assert.Contains(t, received.Subject, "Hotel Caribe")
	assert.Contains(t, received.Text, "482913")
	assert.Contains(t, received.Text, "Hotel Caribe")
}

func TestSendApprovalNotice_Success(t *testing.T) {
	var received sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"id": "msg-002", "status": "sent"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	err := gateway.SendApprovalNotice("reservas@hotelcaribe.co", "Hotel Caribe")
	require.NoError(t, err)

	assert.Equal(t, "reservas@hotelcaribe.co", received.To)
	assert.Contains(t, received.Subject, "approved")
	assert.Contains(t, received.Text, "Hotel Caribe")
}

func TestSend_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	err := gateway.SendVerificationCode("reservas@hotelcaribe.co", "482913", "Hotel Caribe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestSend_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "msg-003", "status": "rejected", "message": "recipient suppressed"}`))
	}))
	defer server.Close()

	gateway := newTestGateway(server.URL)

	err := gateway.SendVerificationCode("blocked@hotelcaribe.co", "482913", "Hotel Caribe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
	assert.Contains(t, err.Error(), "recipient suppressed")
}

func TestSend_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	gateway := newTestGateway(server.URL)

	err := gateway.SendApprovalNotice("reservas@hotelcaribe.co", "Hotel Caribe")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email request failed")
}
