package chat

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("conversation not found")

// Message is an immutable entry in the append-only log between two users.
type Message struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"sender_id" db:"sender_id"`
	ReceiverID string    `json:"receiver_id" db:"receiver_id"`
	Text       string    `json:"message" db:"text"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"` // UTC
}

// Conversation is the rolling state derived from the message log between
// two participants. Participant slots are fixed at creation: the first-seen
// sender becomes User1. Exactly one Conversation exists per unordered pair.
type Conversation struct {
	ID                  string    `json:"id" db:"id"`
	User1ID             string    `json:"user1_id" db:"user1_id"`
	User2ID             string    `json:"user2_id" db:"user2_id"`
	LastMessage         string    `json:"last_message" db:"last_message"`
	LastMessageSenderID string    `json:"last_message_sender_id" db:"last_message_sender_id"`
	LastMessageTime     time.Time `json:"last_message_time" db:"last_message_time"` // UTC
	UnreadCountUser1    int       `json:"unread_count_user1" db:"unread_count_user1"`
	UnreadCountUser2    int       `json:"unread_count_user2" db:"unread_count_user2"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// UnreadFor returns the unread counter belonging to the given participant.
func (c Conversation) UnreadFor(userID string) int {
	if c.User1ID == userID {
		return c.UnreadCountUser1
	}
	return c.UnreadCountUser2
}

// Other returns the participant id that is not userID.
func (c Conversation) Other(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ConversationSummary is the list-view read model: the other participant's
// details plus the caller's unread count.
type ConversationSummary struct {
	UserID              string    `json:"user_id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	LastMessage         string    `json:"last_message"`
	LastMessageSenderID string    `json:"last_message_sender_id"`
	LastMessageTime     time.Time `json:"last_message_time"`
	UnreadCount         int       `json:"unread_count"`
}

type Repository interface {
	CreateMessage(msg Message) (Message, error)
	// QueryMessagesBetween returns all messages between the pair in send order.
	QueryMessagesBetween(userA, userB string) ([]Message, error)
	// GetConversationByUsers looks the pair up regardless of slot order.
	GetConversationByUsers(userA, userB string) (Conversation, error)
	QueryConversationsByUser(userID string) ([]Conversation, error)
	// SaveConversation upserts by Conversation.ID.
	SaveConversation(conv Conversation) (Conversation, error)
}
