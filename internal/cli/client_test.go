package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsTokenAndDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sess-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"score":0}`, string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"player_id":"alice","score":0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "sess-1")
	var p Player
	require.NoError(t, c.Put(context.Background(), "/api/v1/players/alice/score", map[string]uint64{"score": 0}, &p))
	assert.Equal(t, "alice", p.PlayerID)
	assert.Equal(t, uint64(0), p.Score)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"code":"TRANSFER_FAILED","message":"insufficient funds"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Post(context.Background(), "/api/v1/players/alice/power-ups", map[string]string{}, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.Status)
	assert.Equal(t, "TRANSFER_FAILED", apiErr.Code)
	assert.Equal(t, "insufficient funds (TRANSFER_FAILED)", err.Error())
}

func TestClientKeepsStatusForForeignErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Get(context.Background(), "/api/v1/health", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "HTTP_502", apiErr.Code)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestClientHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewClient(srv.URL, "").Get(ctx, "/api/v1/health", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamRejectsMissingPlayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"RECORD_NOT_FOUND","message":"Player record not found"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Stream(context.Background(), playerPath("ghost", "/events"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "RECORD_NOT_FOUND", apiErr.Code)
}
