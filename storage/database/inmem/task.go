package inmemdb

import (
	"sort"
	"time"

	"github.com/prajin1910/eval/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (r *taskRepository) CreateTask(t task.Task) (task.Task, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.t[t.ID] = &t
	return t, nil
}

func (r *taskRepository) GetTaskByID(id string) (task.Task, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if t, ok := r.db.t[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (r *taskRepository) QueryTasksByStudent(studentID string) ([]task.Task, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]task.Task, 0)
	for _, t := range r.db.t {
		if t.StudentID == studentID {
			res = append(res, *t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DueAt.Before(res[j].DueAt) })
	return res, nil
}

func (r *taskRepository) QueryDueBetween(excluded task.Status, from, to time.Time) ([]task.Task, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]task.Task, 0)
	for _, t := range r.db.t {
		if t.Status == excluded {
			continue
		}
		if t.DueAt.Before(from) || t.DueAt.After(to) {
			continue
		}
		res = append(res, *t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DueAt.Before(res[j].DueAt) })
	return res, nil
}

func (r *taskRepository) UpdateTask(t task.Task) (task.Task, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	r.db.t[t.ID] = &t
	return t, nil
}
