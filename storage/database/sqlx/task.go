package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/prajin1910/eval/core/task"
)

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (r *taskRepository) CreateTask(t task.Task) (task.Task, error) {
	_, err := r.db.NamedExec(
		`INSERT INTO task (id, title, description, start_at, due_at, priority, status, student_id, created_at, updated_at)
		 VALUES (:id, :title, :description, :start_at, :due_at, :priority, :status, :student_id, :created_at, :updated_at)`, t)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "creating task")
	}
	return t, nil
}

func (r *taskRepository) GetTaskByID(id string) (task.Task, error) {
	var t task.Task
	err := r.db.Get(&t, `SELECT * FROM task WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return t, nil
}

func (r *taskRepository) QueryTasksByStudent(studentID string) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	err := r.db.Select(&tasks, `SELECT * FROM task WHERE student_id = $1 ORDER BY due_at`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks by student")
	}
	return tasks, nil
}

func (r *taskRepository) QueryDueBetween(excluded task.Status, from, to time.Time) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	err := r.db.Select(&tasks,
		`SELECT * FROM task WHERE status <> $1 AND due_at BETWEEN $2 AND $3 ORDER BY due_at`,
		excluded, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying due tasks")
	}
	return tasks, nil
}

func (r *taskRepository) UpdateTask(t task.Task) (task.Task, error) {
	res, err := r.db.NamedExec(
		`UPDATE task SET title = :title, description = :description, start_at = :start_at, due_at = :due_at,
		 priority = :priority, status = :status, updated_at = :updated_at
		 WHERE id = :id`, t)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}
