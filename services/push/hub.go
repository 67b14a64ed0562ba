package pushsvc

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // origin is enforced upstream
}

// envelope is the wire format pushed to clients.
type envelope struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

// Hub keeps one active websocket connection per user and implements
// core.PushService on top of it. Delivery is best-effort: pushing to a user
// without an active session returns core.ErrNotConnected.
type Hub struct {
	logger core.Logger

	mu       sync.RWMutex
	sessions map[string]*connection // userID -> connection
}

var _ core.PushService = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sessions: make(map[string]*connection),
	}
}

// ServeUser upgrades the request and registers the socket as userID's
// session. A previous session for the same user is replaced and closed.
// Blocks until the client disconnects.
func (h *Hub) ServeUser(userID string, w http.ResponseWriter, r *http.Request) error {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading websocket")
	}
	conn := newConnection(userID, ws)

	h.mu.Lock()
	previous := h.sessions[userID]
	h.sessions[userID] = conn
	h.mu.Unlock()

	go conn.writeLoop()
	if previous != nil {
		previous.Close(4001, "session replaced")
	}
	h.logger.Debug("websocket session opened for user " + userID)

	// read loop: clients only send control frames; a read error means disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.detach(conn)
	h.logger.Debug("websocket session closed for user " + userID)
	return nil
}

func (h *Hub) detach(conn *connection) {
	h.mu.Lock()
	if h.sessions[conn.userID] == conn {
		delete(h.sessions, conn.userID)
	}
	h.mu.Unlock()
	conn.Close(websocket.CloseNormalClosure, "bye")
}

func (h *Hub) PushToUser(userID, channel string, payload interface{}) error {
	h.mu.RLock()
	conn := h.sessions[userID]
	h.mu.RUnlock()
	if conn == nil {
		return core.ErrNotConnected
	}

	data, err := json.Marshal(envelope{Channel: channel, Data: payload})
	if err != nil {
		return errors.Wrap(err, "marshaling push payload")
	}
	if err := conn.Send(data); err != nil {
		return errors.Wrap(err, "pushing to user "+userID)
	}
	return nil
}

// Connected reports whether the user has an active session.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[userID] != nil
}

// Shutdown closes all active sessions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*connection, 0, len(h.sessions))
	for _, c := range h.sessions {
		conns = append(conns, c)
	}
	h.sessions = make(map[string]*connection)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close(websocket.CloseGoingAway, "server shutting down")
	}
}
