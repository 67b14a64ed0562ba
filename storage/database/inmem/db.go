package inmemdb

import (
	"sync"

	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/task"
	"github.com/prajin1910/eval/core/user"
)

type (
	// DB is an in-memory document store used in DEV/TEST.
	DB struct {
		user *userTable
		task *taskTable
		chat *chatTable
	}

	userTable struct {
		t     map[string]*user.User
		mutex sync.RWMutex
	}

	taskTable struct {
		t     map[string]*task.Task
		mutex sync.RWMutex
	}

	chatTable struct {
		messages      []chat.Message
		conversations map[string]*chat.Conversation
		mutex         sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{t: make(map[string]*user.User)},
		task: &taskTable{t: make(map[string]*task.Task)},
		chat: &chatTable{conversations: make(map[string]*chat.Conversation)},
	}
	return db, nil
}
