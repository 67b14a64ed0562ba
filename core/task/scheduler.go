package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/user"
)

// UserDirectory resolves reminder recipients.
type UserDirectory interface {
	GetByID(id string) (user.User, error)
}

// Scheduler periodically scans outstanding tasks and fires reminders for
// any task whose remaining time crossed a threshold since the previous tick.
// A single instance is assumed; ticks never overlap (skip-if-running).
type Scheduler struct {
	repo     Repository
	users    UserDirectory
	notifier *Notifier
	logger   core.Logger

	interval   time.Duration
	thresholds []int
	window     time.Duration

	running  int32
	prevTick time.Time
	cancel   context.CancelFunc
	done     chan struct{}
	nowFunc  func() time.Time
}

func NewScheduler(
	repo Repository,
	users UserDirectory,
	notifier *Notifier,
	logger core.Logger,
	conf core.ReminderConfig,
) *Scheduler {
	interval := conf.PollInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	thresholds := conf.Thresholds
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	window := conf.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Scheduler{
		repo:       repo,
		users:      users,
		notifier:   notifier,
		logger:     logger,
		interval:   interval,
		thresholds: thresholds,
		window:     window,
		nowFunc:    func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the background loop. It returns immediately; Stop waits
// for an in-flight tick to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.prevTick = s.nowFunc().Add(-s.interval)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(s.nowFunc())
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// RunOnce executes a single scan; normally driven by Start's ticker.
// Errors never propagate: this is a background loop with no caller; every
// failure is logged and the batch continues.
func (s *Scheduler) RunOnce(now time.Time) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		s.logger.Debug("reminder tick still running, skipping")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	if s.prevTick.IsZero() {
		s.prevTick = now.Add(-s.interval)
	}
	prev := s.prevTick
	s.prevTick = now

	tasks, err := s.repo.QueryDueBetween(StatusCompleted, now, now.Add(s.window))
	if err != nil {
		s.logger.Error("querying due tasks", err)
		return
	}

	for _, t := range tasks {
		threshold, ok := CrossedThreshold(s.thresholds, prev, now, t.DueAt)
		if !ok {
			continue
		}
		ev := ReminderEvent{
			TaskID:          t.ID,
			Threshold:       threshold,
			MinutesUntilDue: minutesUntil(now, t.DueAt),
			HoursUntilDue:   int64(t.DueAt.Sub(now) / time.Hour),
		}

		student, err := s.users.GetByID(t.StudentID)
		if err != nil {
			// a missing recipient is not fatal to the batch
			s.logger.Warn(fmt.Sprintf("task %s: resolving student %s", t.ID, t.StudentID), err)
			continue
		}

		s.notifier.Deliver(student, t, ev.HoursUntilDue, ev.MinutesUntilDue)
		s.logger.Info(fmt.Sprintf("task reminder sent for task: %s to user: %s", t.Title, student.Username))
	}
}
