package chat_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/user"
	inmemdb "github.com/prajin1910/eval/storage/database/inmem"
)

type pushRecord struct {
	userID  string
	channel string
	payload interface{}
}

type fakePushService struct {
	mu      sync.Mutex
	records []pushRecord
}

var _ core.PushService = (*fakePushService)(nil)

func (svc *fakePushService) PushToUser(userID, channel string, payload interface{}) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.records = append(svc.records, pushRecord{userID, channel, payload})
	return nil
}

func (svc *fakePushService) pushed() []pushRecord {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]pushRecord(nil), svc.records...)
}

type fakeDirectory struct {
	users map[string]user.User
}

func (d *fakeDirectory) GetByID(id string) (user.User, error) {
	if usr, ok := d.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func setup(t *testing.T) (*chat.Service, chat.Repository, *fakePushService) {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	repo := inmemdb.NewChatRepository(db)
	pushSvc := &fakePushService{}
	dir := &fakeDirectory{users: map[string]user.User{
		"s1": {ID: "s1", Username: "sam", Email: "sam@example.com", Role: user.RoleStudent},
		"r1": {ID: "r1", Username: "rita", Email: "rita@example.com", Role: user.RoleProfessor},
	}}
	return chat.NewService(repo, dir, pushSvc, nopLogger{}), repo, pushSvc
}

func getConversation(t *testing.T, repo chat.Repository, userA, userB string) chat.Conversation {
	conv, err := repo.GetConversationByUsers(userA, userB)
	if err != nil {
		t.Fatalf("getConversation() failed: %v", err)
	}
	return conv
}

func TestService_Send_incrementsReceiverUnread(t *testing.T) {
	svc, repo, _ := setup(t)

	_, err := svc.Send("s1", "r1", "hello")
	assert.NoError(t, err)
	_, err = svc.Send("s1", "r1", "still there?")
	assert.NoError(t, err)

	conv := getConversation(t, repo, "s1", "r1")
	assert.Equal(t, "s1", conv.User1ID, "first-seen sender becomes participant 1")
	assert.Equal(t, 2, conv.UnreadFor("r1"), "two sends increment the receiver by exactly 2")
	assert.Equal(t, 0, conv.UnreadFor("s1"), "the sender's counter is unchanged")
	assert.Equal(t, "still there?", conv.LastMessage)
	assert.Equal(t, "s1", conv.LastMessageSenderID)
}

func TestService_Send_emptyMessage(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Send("s1", "r1", "   ")
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

// Sending B->A then A->B must not create two conversations: the pair is
// unordered and slots stay as fixed at first creation.
func TestService_Send_onePairOneConversation(t *testing.T) {
	svc, repo, _ := setup(t)

	_, err := svc.Send("r1", "s1", "hi")
	assert.NoError(t, err)
	_, err = svc.Send("s1", "r1", "hey back")
	assert.NoError(t, err)

	conv := getConversation(t, repo, "s1", "r1")
	assert.Equal(t, "r1", conv.User1ID)
	assert.Equal(t, "s1", conv.User2ID)
	assert.Equal(t, 1, conv.UnreadFor("s1"))
	assert.Equal(t, 1, conv.UnreadFor("r1"))

	convs, err := repo.QueryConversationsByUser("s1")
	assert.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestService_Send_pushesToBothParticipants(t *testing.T) {
	svc, _, pushSvc := setup(t)

	msg, err := svc.Send("s1", "r1", "hello")
	assert.NoError(t, err)

	records := pushSvc.pushed()
	if assert.Len(t, records, 2) {
		// receiver first, then the sender's confirmation echo
		assert.Equal(t, "r1", records[0].userID)
		assert.Equal(t, "s1", records[1].userID)
		for _, rec := range records {
			assert.Equal(t, core.PushChannelMessages, rec.channel)
			assert.Equal(t, msg, rec.payload)
		}
	}
}

func TestService_MarkRead(t *testing.T) {
	svc, repo, _ := setup(t)

	_, _ = svc.Send("s1", "r1", "one")
	_, _ = svc.Send("s1", "r1", "two")

	assert.NoError(t, svc.MarkRead("r1", "s1"))
	conv := getConversation(t, repo, "s1", "r1")
	assert.Equal(t, 0, conv.UnreadFor("r1"))
	assert.Equal(t, 0, conv.UnreadFor("s1"), "the other participant's counter is untouched")

	// idempotent
	assert.NoError(t, svc.MarkRead("r1", "s1"))
	conv = getConversation(t, repo, "s1", "r1")
	assert.Equal(t, 0, conv.UnreadFor("r1"))
}

func TestService_MarkRead_noConversationIsNoop(t *testing.T) {
	svc, _, _ := setup(t)
	assert.NoError(t, svc.MarkRead("s1", "r1"))
}

func TestService_MessagesBetween(t *testing.T) {
	svc, repo, _ := setup(t)

	_, err := svc.Send("s1", "r1", "hello")
	assert.NoError(t, err)

	msgs, err := svc.MessagesBetween("r1", "s1")
	assert.NoError(t, err)
	if assert.Len(t, msgs, 1) {
		assert.Equal(t, "hello", msgs[0].Text)
		assert.Equal(t, "s1", msgs[0].SenderID)
	}

	// fetching marks the fetching user's slot as read
	conv := getConversation(t, repo, "s1", "r1")
	assert.Equal(t, 0, conv.UnreadFor("r1"))
	assert.Equal(t, 0, conv.UnreadFor("s1"))
}

func TestService_MessagesBetween_sendOrder(t *testing.T) {
	svc, _, _ := setup(t)

	texts := []string{"one", "two", "three", "four"}
	for _, txt := range texts {
		if _, err := svc.Send("s1", "r1", txt); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}

	msgs, err := svc.MessagesBetween("r1", "s1")
	assert.NoError(t, err)
	if assert.Len(t, msgs, len(texts)) {
		for i, txt := range texts {
			assert.Equal(t, txt, msgs[i].Text)
		}
	}
}

// Concurrent sends to the same pair must not lose unread-counter updates.
func TestService_Send_concurrentSameConversation(t *testing.T) {
	svc, repo, _ := setup(t)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Send("s1", "r1", "ping"); err != nil {
				t.Errorf("Send() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	conv := getConversation(t, repo, "s1", "r1")
	assert.Equal(t, n, conv.UnreadFor("r1"))
	assert.Equal(t, 0, conv.UnreadFor("s1"))
}

func TestService_Conversations(t *testing.T) {
	svc, _, _ := setup(t)

	_, _ = svc.Send("s1", "r1", "hello")

	convs, err := svc.Conversations("r1")
	assert.NoError(t, err)
	if assert.Len(t, convs, 1) {
		assert.Equal(t, "s1", convs[0].UserID)
		assert.Equal(t, "sam", convs[0].Username)
		assert.Equal(t, "hello", convs[0].LastMessage)
		assert.Equal(t, 1, convs[0].UnreadCount)
	}

	// the sender sees a zero unread count on the same conversation
	convs, err = svc.Conversations("s1")
	assert.NoError(t, err)
	if assert.Len(t, convs, 1) {
		assert.Equal(t, 0, convs[0].UnreadCount)
	}
}
