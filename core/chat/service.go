package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/user"
)

var ErrEmptyMessage = errors.New("message text is required")

// UserDirectory resolves conversation participants for the list view.
type UserDirectory interface {
	GetByID(id string) (user.User, error)
}

// Service owns message ingest and the per-pair conversation aggregate.
// The read-modify-write on a Conversation is serialized per unordered pair
// so concurrent sends cannot lose unread-counter updates.
type Service struct {
	repo    Repository
	users   UserDirectory
	pushSvc core.PushService
	logger  core.Logger

	mu    sync.Mutex
	pairs map[string]*sync.Mutex
}

func NewService(repo Repository, users UserDirectory, pushSvc core.PushService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		users:   users,
		pushSvc: pushSvc,
		logger:  logger,
		pairs:   make(map[string]*sync.Mutex),
	}
}

// pairKey builds one key per unordered pair.
func pairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + "|" + userB
}

func (svc *Service) lockPair(userA, userB string) *sync.Mutex {
	key := pairKey(userA, userB)
	svc.mu.Lock()
	l, ok := svc.pairs[key]
	if !ok {
		l = &sync.Mutex{}
		svc.pairs[key] = l
	}
	svc.mu.Unlock()
	l.Lock()
	return l
}

// Send appends a message, folds it into the conversation aggregate and
// pushes it to both participants. The sender receives its own message as a
// delivery confirmation echo; deduplication is the client's concern.
func (svc *Service) Send(senderID, receiverID, text string) (Message, error) {
	text = core.CleanString(text)
	if text == "" {
		return Message{}, core.NewValidationError(ErrEmptyMessage, core.FieldError{Field: "message", Error: ErrEmptyMessage.Error()})
	}

	now := time.Now().UTC()
	msg := Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		SentAt:     now,
	}
	msg, err := svc.repo.CreateMessage(msg)
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}

	if _, err := svc.applyMessage(senderID, receiverID, text, now); err != nil {
		return Message{}, errors.Wrap(err, "updating conversation")
	}

	svc.push(receiverID, msg)
	svc.push(senderID, msg)
	return msg, nil
}

// applyMessage folds one message into the pair's Conversation: last-message
// fields are overwritten, the receiver's unread counter is incremented. The
// counter is resolved by identity match against the participant slots, not
// by position.
func (svc *Service) applyMessage(senderID, receiverID, text string, now time.Time) (Conversation, error) {
	l := svc.lockPair(senderID, receiverID)
	defer l.Unlock()

	conv, err := svc.repo.GetConversationByUsers(senderID, receiverID)
	if err != nil {
		if err != ErrNotFound {
			return Conversation{}, err
		}
		conv = Conversation{
			ID:        uuid.NewString(),
			User1ID:   senderID,
			User2ID:   receiverID,
			CreatedAt: now,
		}
	}

	conv.LastMessage = text
	conv.LastMessageSenderID = senderID
	conv.LastMessageTime = now
	conv.UpdatedAt = now

	if conv.User1ID == receiverID {
		conv.UnreadCountUser1++
	} else {
		conv.UnreadCountUser2++
	}

	return svc.repo.SaveConversation(conv)
}

// MessagesBetween returns the pair's messages in send order. Fetching is not
// side-effect-free: the fetching user is assumed to be reading, so their
// unread counter is reset.
func (svc *Service) MessagesBetween(readerID, otherID string) ([]Message, error) {
	msgs, err := svc.repo.QueryMessagesBetween(readerID, otherID)
	if err != nil {
		return nil, err
	}
	if err := svc.MarkRead(readerID, otherID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead resets the reader's unread counter; the other participant's
// counter is untouched. A pair with no conversation yet is a no-op.
func (svc *Service) MarkRead(readerID, otherID string) error {
	l := svc.lockPair(readerID, otherID)
	defer l.Unlock()

	conv, err := svc.repo.GetConversationByUsers(readerID, otherID)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}

	if conv.User1ID == readerID {
		conv.UnreadCountUser1 = 0
	} else {
		conv.UnreadCountUser2 = 0
	}
	conv.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.SaveConversation(conv)
	return err
}

// Conversations returns the caller's conversation list, most recent first.
// Conversations whose other participant no longer resolves are skipped.
func (svc *Service) Conversations(userID string) ([]ConversationSummary, error) {
	convs, err := svc.repo.QueryConversationsByUser(userID)
	if err != nil {
		return nil, err
	}

	res := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		other, err := svc.users.GetByID(conv.Other(userID))
		if err != nil {
			if err == user.ErrNotFound {
				continue
			}
			return nil, err
		}
		res = append(res, ConversationSummary{
			UserID:              other.ID,
			Username:            other.Username,
			Email:               other.Email,
			Role:                other.Role,
			LastMessage:         conv.LastMessage,
			LastMessageSenderID: conv.LastMessageSenderID,
			LastMessageTime:     conv.LastMessageTime,
			UnreadCount:         conv.UnreadFor(userID),
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].LastMessageTime.After(res[j].LastMessageTime) })
	return res, nil
}

func (svc *Service) push(userID string, msg Message) {
	if err := svc.pushSvc.PushToUser(userID, core.PushChannelMessages, msg); err != nil {
		if err == core.ErrNotConnected {
			svc.logger.Debug("message "+msg.ID+": user "+userID+" offline, push dropped", err)
		} else {
			svc.logger.Error("message "+msg.ID+": pushing to user "+userID, err)
		}
	}
}
