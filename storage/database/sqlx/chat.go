package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core/chat"
)

type chatRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *sqlx.DB) chat.Repository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateMessage(msg chat.Message) (chat.Message, error) {
	_, err := r.db.NamedExec(
		`INSERT INTO chat_message (id, sender_id, receiver_id, text, sent_at)
		 VALUES (:id, :sender_id, :receiver_id, :text, :sent_at)`, msg)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "creating message")
	}
	return msg, nil
}

func (r *chatRepository) QueryMessagesBetween(userA, userB string) ([]chat.Message, error) {
	msgs := make([]chat.Message, 0)
	err := r.db.Select(&msgs,
		`SELECT * FROM chat_message
		 WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY sent_at, id`,
		userA, userB)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	return msgs, nil
}

func (r *chatRepository) GetConversationByUsers(userA, userB string) (chat.Conversation, error) {
	var conv chat.Conversation
	err := r.db.Get(&conv,
		`SELECT * FROM chat_conversation
		 WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)`,
		userA, userB)
	if err == sql.ErrNoRows {
		return chat.Conversation{}, chat.ErrNotFound
	}
	if err != nil {
		return chat.Conversation{}, errors.Wrap(err, "getting conversation")
	}
	return conv, nil
}

func (r *chatRepository) QueryConversationsByUser(userID string) ([]chat.Conversation, error) {
	convs := make([]chat.Conversation, 0)
	err := r.db.Select(&convs,
		`SELECT * FROM chat_conversation WHERE user1_id = $1 OR user2_id = $1`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying conversations")
	}
	return convs, nil
}

func (r *chatRepository) SaveConversation(conv chat.Conversation) (chat.Conversation, error) {
	_, err := r.db.NamedExec(
		`INSERT INTO chat_conversation
			(id, user1_id, user2_id, last_message, last_message_sender_id, last_message_time,
			 unread_count_user1, unread_count_user2, created_at, updated_at)
		 VALUES
			(:id, :user1_id, :user2_id, :last_message, :last_message_sender_id, :last_message_time,
			 :unread_count_user1, :unread_count_user2, :created_at, :updated_at)
		 ON CONFLICT (id) DO UPDATE SET
			last_message = EXCLUDED.last_message,
			last_message_sender_id = EXCLUDED.last_message_sender_id,
			last_message_time = EXCLUDED.last_message_time,
			unread_count_user1 = EXCLUDED.unread_count_user1,
			unread_count_user2 = EXCLUDED.unread_count_user2,
			updated_at = EXCLUDED.updated_at`, conv)
	if err != nil {
		return chat.Conversation{}, errors.Wrap(err, "saving conversation")
	}
	return conv, nil
}
