package server_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
	"github.com/Tyrowin/gochat-rooms/internal/server"
)

const testOrigin = "http://localhost:8080"

// frame is one decoded server event.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs a hub behind an httptest server. customize may adjust the
// configuration before it is applied.
func startServer(t *testing.T, customize func(cfg *server.Config)) (*httptest.Server, *server.Hub) {
	t.Helper()

	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}
	server.SetConfig(cfg)

	hub := server.NewHub(quietLogger(), chat.Options{})
	server.StartHub(hub)
	srv := httptest.NewServer(server.SetupRoutes(hub))

	t.Cleanup(func() {
		srv.Close()
		_ = hub.Shutdown(2 * time.Second)
		server.SetConfig(nil)
	})
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	header.Set("Origin", testOrigin)

	conn, resp, err := dialer.Dial(wsURL(srv), header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// await reads frames until one named event arrives and returns it. Frames
// for other events are skipped.
func await(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	var seen []string
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			require.Failf(t, "event not received", "waiting for %q, saw %v: %v", event, seen, err)
			return frame{}
		}
		if f.Event == event {
			return f
		}
		seen = append(seen, f.Event)
	}
}

func decode[T any](t *testing.T, f frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

// expectClosed waits for the server to close conn.
func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				require.Fail(t, "connection was not closed")
			}
			return
		}
	}
}

// join sets a nickname on a fresh connection and enters room.
func join(t *testing.T, srv *httptest.Server, nickname, room string) *websocket.Conn {
	t.Helper()
	conn := dial(t, srv)
	send(t, conn, chat.EventSetNickname, map[string]string{"nickname": nickname})
	await(t, conn, chat.EventUpdateRooms)
	send(t, conn, chat.EventCreateRoom, map[string]any{"roomName": room})
	await(t, conn, chat.EventRoomJoined)
	return conn
}
