package task

import (
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/user"
)

// DefaultThresholds are the remaining-time marks (minutes, descending) at
// which a reminder fires: 24h, 12h, 6h, 3h, 1h, 30min, 15min.
var DefaultThresholds = []int{1440, 720, 360, 180, 60, 30, 15}

// ReminderEvent records a threshold crossing for a single task. It is
// produced per scheduler tick and consumed immediately; never persisted.
type ReminderEvent struct {
	TaskID          string
	Threshold       int // minutes
	MinutesUntilDue int64
	HoursUntilDue   int64
}

func minutesUntil(now, dueAt time.Time) int64 {
	return int64(dueAt.Sub(now) / time.Minute)
}

// MatchThreshold reports whether the whole minutes remaining until dueAt
// equal one of the thresholds exactly. This is the legacy predicate: a poll
// cadence that never lands on the exact minute skips the threshold entirely.
// CrossedThreshold is the default; this is kept for cadence-aligned setups.
func MatchThreshold(thresholds []int, now, dueAt time.Time) (int, bool) {
	m := minutesUntil(now, dueAt)
	for _, t := range thresholds {
		if m == int64(t) {
			return t, true
		}
	}
	return 0, false
}

// CrossedThreshold reports the threshold that was crossed between the
// previous tick and now: prevMinutes > threshold >= minutes. When several
// thresholds were crossed in one interval (a late tick), the most urgent
// one wins so the client sees the tightest remaining time.
func CrossedThreshold(thresholds []int, prev, now, dueAt time.Time) (int, bool) {
	prevMin := minutesUntil(prev, dueAt)
	m := minutesUntil(now, dueAt)
	if m < 0 {
		return 0, false
	}

	var crossed int
	var ok bool
	for _, t := range thresholds { // descending
		if prevMin > int64(t) && int64(t) >= m {
			crossed, ok = t, true
		}
	}
	return crossed, ok
}

// ReminderNotification is the realtime payload pushed on the notifications channel.
type ReminderNotification struct {
	Type            string    `json:"type"`
	TaskID          string    `json:"taskId"`
	TaskTitle       string    `json:"taskTitle"`
	HoursUntilDue   int64     `json:"hoursUntilDue"`
	MinutesUntilDue int64     `json:"minutesUntilDue"`
	Message         string    `json:"message"`
	Timestamp       int64     `json:"timestamp"`
	Priority        Priority  `json:"priority"`
	DueDateTime     time.Time `json:"dueDateTime"`
}

const notificationTypeReminder = "TASK_REMINDER"

// Notifier fans a reminder out to the two delivery channels: email and
// realtime push. The channels are independent; a failure in one is logged
// and does not affect the other.
type Notifier struct {
	mailSvc core.EmailService
	pushSvc core.PushService
	logger  core.Logger
}

func NewNotifier(mailSvc core.EmailService, pushSvc core.PushService, logger core.Logger) *Notifier {
	return &Notifier{mailSvc: mailSvc, pushSvc: pushSvc, logger: logger}
}

func (n *Notifier) Deliver(student user.User, t Task, hoursUntilDue, minutesUntilDue int64) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		// the email service already isolates transport failures per message
		n.mailSvc.SendMessages(reminderEmail(student, t, hoursUntilDue))
	}()

	go func() {
		defer wg.Done()
		payload := ReminderNotification{
			Type:            notificationTypeReminder,
			TaskID:          t.ID,
			TaskTitle:       t.Title,
			HoursUntilDue:   hoursUntilDue,
			MinutesUntilDue: minutesUntilDue,
			Message:         reminderMessage(t, hoursUntilDue, minutesUntilDue),
			Timestamp:       time.Now().UnixMilli(),
			Priority:        t.Priority,
			DueDateTime:     t.DueAt,
		}
		if err := n.pushSvc.PushToUser(student.ID, core.PushChannelNotifications, payload); err != nil {
			if err == core.ErrNotConnected {
				n.logger.Debug("task "+t.ID+": student offline, reminder push dropped", err)
			} else {
				n.logger.Error("task "+t.ID+": pushing reminder", err)
			}
		}
	}()

	wg.Wait()
}

const dueDateFormat = "Jan 02, 2006 at 03:04 PM"

func reminderEmail(student user.User, t Task, hoursUntilDue int64) *core.EmailMessage {
	timeText := fmt.Sprintf("%d hours", hoursUntilDue)
	if hoursUntilDue <= 1 {
		timeText = "less than 1 hour"
	}
	desc := t.Description
	if desc == "" {
		desc = "No description"
	}

	body := fmt.Sprintf(
		"Dear Student,\n\n"+
			"This is a reminder that your task is due soon:\n\n"+
			"Task: %s\n"+
			"Description: %s\n"+
			"Due Date: %s\n"+
			"Time Remaining: %s\n"+
			"Priority: %s\n\n"+
			"Please complete your task on time.\n\n"+
			"Best regards,\n%s Team",
		t.Title, desc, t.DueAt.Format(dueDateFormat), timeText, t.Priority, core.Conf.AppName,
	)

	return &core.EmailMessage{
		To:      []mail.Address{student.EmailAddr()},
		Subject: "Task Reminder: " + t.Title,
		BodyStr: body,
	}
}

// reminderMessage picks the message tier by remaining time; first match wins.
func reminderMessage(t Task, hoursUntilDue, minutesUntilDue int64) string {
	switch {
	case minutesUntilDue <= 15:
		return fmt.Sprintf("🚨 URGENT: Task '%s' is due in %d minutes!", t.Title, minutesUntilDue)
	case minutesUntilDue <= 30:
		return fmt.Sprintf("⚠️ Task '%s' is due in %d minutes!", t.Title, minutesUntilDue)
	case hoursUntilDue <= 1:
		return fmt.Sprintf("⏰ Task '%s' is due in less than 1 hour!", t.Title)
	case hoursUntilDue <= 6:
		return fmt.Sprintf("⏰ Task '%s' is due in %d hours", t.Title, hoursUntilDue)
	default:
		return fmt.Sprintf("📅 Reminder: Task '%s' is due in %d hours", t.Title, hoursUntilDue)
	}
}
