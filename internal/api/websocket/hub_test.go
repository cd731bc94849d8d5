package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	ok := hub.BroadcastEvent(Event{Type: EventRefresh, Data: map[string]int{"tournaments": 3}})
	assert.True(t, ok)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), `"type":"refresh"`)
	assert.Contains(t, string(message), `"tournaments":3`)
}

func TestHubMultipleClients(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	first := dial(t, server)
	second := dial(t, server)
	waitForClients(t, hub, 2)

	hub.BroadcastEvent(Event{Type: EventRefresh})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}
}

func TestHubStop(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(httpHandler(hub))
	defer server.Close()

	dial(t, server)
	waitForClients(t, hub, 1)

	hub.Stop()
	waitForClients(t, hub, 0)

	assert.False(t, hub.BroadcastEvent(Event{Type: EventRefresh}))

	// New connections are refused after Stop.
	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 503, resp.StatusCode)
}

func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(hub.ServeWs)
}
