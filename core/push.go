package core

import "errors"

// Queues a client can subscribe to over the realtime transport.
const (
	PushChannelMessages      = "messages"
	PushChannelNotifications = "notifications"
)

// ErrNotConnected reports that the target user has no active realtime session.
var ErrNotConnected = errors.New("user has no active connection")

// PushService delivers structured payloads to connected clients.
// Delivery is best-effort: no acknowledgment is observed by callers.
type PushService interface {
	PushToUser(userID, channel string, payload interface{}) error
}
