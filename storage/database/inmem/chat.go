package inmemdb

import (
	"sort"

	"github.com/prajin1910/eval/core/chat"
)

type chatRepository struct {
	db *chatTable
}

var _ chat.Repository = (*chatRepository)(nil)

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat}
}

func (r *chatRepository) CreateMessage(msg chat.Message) (chat.Message, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.messages = append(r.db.messages, msg)
	return msg, nil
}

func (r *chatRepository) QueryMessagesBetween(userA, userB string) ([]chat.Message, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]chat.Message, 0)
	for _, msg := range r.db.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			res = append(res, msg)
		}
	}
	// sent-at order; insertion order breaks ties
	sort.SliceStable(res, func(i, j int) bool { return res[i].SentAt.Before(res[j].SentAt) })
	return res, nil
}

func (r *chatRepository) GetConversationByUsers(userA, userB string) (chat.Conversation, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, conv := range r.db.conversations {
		if (conv.User1ID == userA && conv.User2ID == userB) ||
			(conv.User1ID == userB && conv.User2ID == userA) {
			return *conv, nil
		}
	}
	return chat.Conversation{}, chat.ErrNotFound
}

func (r *chatRepository) QueryConversationsByUser(userID string) ([]chat.Conversation, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]chat.Conversation, 0)
	for _, conv := range r.db.conversations {
		if conv.User1ID == userID || conv.User2ID == userID {
			res = append(res, *conv)
		}
	}
	return res, nil
}

func (r *chatRepository) SaveConversation(conv chat.Conversation) (chat.Conversation, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.conversations[conv.ID] = &conv
	return conv, nil
}
