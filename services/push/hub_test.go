package pushsvc_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prajin1910/eval/core"
	pushsvc "github.com/prajin1910/eval/services/push"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func dial(t *testing.T, hub *pushsvc.Hub, userID string) *websocket.Conn {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeUser(userID, w, r)
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	// registration happens in the server goroutine; wait for it
	deadline := time.Now().Add(2 * time.Second)
	for !hub.Connected(userID) {
		if time.Now().After(deadline) {
			t.Fatal("session was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return ws
}

func TestHub_PushToUser(t *testing.T) {
	hub := pushsvc.NewHub(nopLogger{})
	defer hub.Shutdown()

	ws := dial(t, hub, "u1")

	payload := map[string]string{"message": "hello"}
	require.NoError(t, hub.PushToUser("u1", core.PushChannelMessages, payload))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Channel string            `json:"channel"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, core.PushChannelMessages, got.Channel)
	assert.Equal(t, "hello", got.Data["message"])
}

func TestHub_PushToUser_notConnected(t *testing.T) {
	hub := pushsvc.NewHub(nopLogger{})
	err := hub.PushToUser("ghost", core.PushChannelNotifications, "hi")
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestHub_disconnectDetaches(t *testing.T) {
	hub := pushsvc.NewHub(nopLogger{})
	defer hub.Shutdown()

	ws := dial(t, hub, "u1")
	require.True(t, hub.Connected("u1"))

	require.NoError(t, ws.Close())

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connected("u1") {
		if time.Now().After(deadline) {
			t.Fatal("session was never detached")
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.ErrorIs(t, hub.PushToUser("u1", core.PushChannelMessages, "late"), core.ErrNotConnected)
}
