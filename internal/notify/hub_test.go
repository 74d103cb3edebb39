package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"elapor/internal/cooldown"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn, "u-admin")
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestPublishReachesClient(t *testing.T) {
	hub, conn := startHub(t)

	hub.Publish(TypeRoster, RosterPayload{Action: "saved", By: "u-admin"})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeRoster, msg["type"])
	payload := msg["payload"].(map[string]interface{})
	assert.Equal(t, "saved", payload["action"])
}

func TestCooldownListenerForwardsTicks(t *testing.T) {
	hub, conn := startHub(t)

	listener := hub.CooldownListener()
	listener(cooldown.Event{UserID: "u1", Remaining: 42 * time.Second})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeCooldown, msg["type"])
	payload := msg["payload"].(map[string]interface{})
	assert.Equal(t, "u1", payload["user_id"])
	assert.Equal(t, float64(42000), payload["remaining_ms"])
	assert.Equal(t, false, payload["expired"])
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, conn := startHub(t)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
