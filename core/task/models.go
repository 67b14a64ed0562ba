package task

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/prajin1910/eval/core"
)

var (
	ErrNotFound      = errors.New("task not found")
	ErrTaskCompleted = errors.New("a completed task cannot change status")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	// StatusCompleted is terminal: a completed task is never eligible for reminders.
	StatusCompleted Status = "COMPLETED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Task struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	StartAt     time.Time `json:"start_at" db:"start_at"` // UTC
	DueAt       time.Time `json:"due_at" db:"due_at"`     // UTC
	Priority    Priority  `json:"priority" db:"priority"`
	Status      Status    `json:"status" db:"status"`
	StudentID   string    `json:"student_id" db:"student_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type NewTask struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	DueAt       time.Time `json:"due_at" validate:"required"`
	Priority    Priority  `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
	StudentID   string    `json:"student_id" validate:"required"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

type (
	Repository interface {
		CreateTask(t Task) (Task, error)
		GetTaskByID(id string) (Task, error)
		QueryTasksByStudent(studentID string) ([]Task, error)
		// QueryDueBetween returns tasks not in `excluded` status that are due
		// within [from, to]. It is a scan pre-filter, not the reminder eligibility check.
		QueryDueBetween(excluded Status, from, to time.Time) ([]Task, error)
		UpdateTask(t Task) (Task, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(nt NewTask) (Task, error) {
	now := time.Now().UTC()
	startAt := nt.StartAt.UTC()
	if nt.StartAt.IsZero() {
		startAt = now
	}
	t := Task{
		ID:          uuid.NewString(),
		Title:       nt.Title,
		Description: nt.Description,
		StartAt:     startAt,
		DueAt:       nt.DueAt.UTC(),
		Priority:    nt.Priority,
		Status:      StatusPending,
		StudentID:   nt.StudentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(t)
}

func (svc *Service) GetByID(id string) (Task, error) {
	return svc.repo.GetTaskByID(id)
}

func (svc *Service) QueryByStudent(studentID string) ([]Task, error) {
	return svc.repo.QueryTasksByStudent(studentID)
}

func (svc *Service) UpdateStatus(id string, status Status) (Task, error) {
	t, err := svc.repo.GetTaskByID(id)
	if err != nil {
		return Task{}, err
	}
	// COMPLETED is terminal
	if t.Status == StatusCompleted && status != StatusCompleted {
		return Task{}, core.NewValidationError(ErrTaskCompleted, core.FieldError{Field: "status", Error: ErrTaskCompleted.Error()})
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(t)
}
