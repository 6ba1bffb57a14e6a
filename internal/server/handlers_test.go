package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
	"github.com/Tyrowin/gochat-rooms/internal/server"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		method string
	}{
		{"GET request to health endpoint", http.MethodGet},
		{"POST request to health endpoint", http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", http.NoBody)
			rr := httptest.NewRecorder()

			server.HealthHandler(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
			assert.Equal(t, "GoChat server is running!", rr.Body.String())
		})
	}
}

func TestTestPageHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	server.TestPageHandler(rr, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<title>GoChat Rooms Test</title>")
	assert.Contains(t, body, "'join room'")
	assert.Contains(t, body, "'kick user'")
}

func TestStatsHandlerRejectsNonGET(t *testing.T) {
	hub := server.NewHub(quietLogger(), chat.Options{})
	rr := httptest.NewRecorder()
	hub.StatsHandler(rr, httptest.NewRequest(http.MethodPost, "/stats", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSetupRoutes(t *testing.T) {
	hub := server.NewHub(quietLogger(), chat.Options{})
	mux := server.SetupRoutes(hub)

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/stats", http.StatusOK},
		{"/test", http.StatusOK},
		// A plain GET without upgrade headers is refused by the upgrader.
		{"/ws", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestCreateServer(t *testing.T) {
	mux := http.NewServeMux()
	srv := server.CreateServer(":9999", mux)

	require.NotNil(t, srv)
	assert.Equal(t, ":9999", srv.Addr)
	assert.Equal(t, mux, srv.Handler)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}
