package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rosterassist/internal/models"
	"rosterassist/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	DefaultMaxAttempts = 5
	defaultBatchSize   = 50
)

// Notifier queues a notification for later delivery.
type Notifier interface {
	Enqueue(template string, recipientID uint, payload interface{}) (*models.NotificationJob, error)
}

type ShiftLine struct {
	Day        string          `json:"day"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Section    string          `json:"section"`
	PaidHours  decimal.Decimal `json:"paid_hours"`
	WageCost   decimal.Decimal `json:"wage_cost"`
	HasBreak   bool            `json:"has_break"`
	BreakStart *time.Time      `json:"break_start,omitempty"`
	BreakEnd   *time.Time      `json:"break_end,omitempty"`
}

type ShiftsAssignedPayload struct {
	RosterID   uint            `json:"roster_id"`
	RosterName string          `json:"roster_name"`
	WeekStart  time.Time       `json:"week_start"`
	WeekEnd    time.Time       `json:"week_end"`
	StaffName  string          `json:"staff_name"`
	TotalHours decimal.Decimal `json:"total_hours"`
	TotalWages decimal.Decimal `json:"total_wages"`
	Shifts     []ShiftLine     `json:"shifts"`
}

type ShiftChangedPayload struct {
	RosterID   uint                 `json:"roster_id"`
	RosterName string               `json:"roster_name"`
	ShiftID    uint                 `json:"shift_id"`
	StaffName  string               `json:"staff_name"`
	Previous   models.ShiftSnapshot `json:"previous"`
	Current    models.ShiftSnapshot `json:"current"`
}

type NotificationService struct {
	jobs   repository.NotificationJobRepository
	logger *logrus.Logger
}

func NewNotificationService(jobs repository.NotificationJobRepository) *NotificationService {
	return &NotificationService{jobs: jobs, logger: newLogger()}
}

func (s *NotificationService) Enqueue(template string, recipientID uint, payload interface{}) (*models.NotificationJob, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode notification payload: %w", err)
	}

	job := &models.NotificationJob{
		Template:    template,
		RecipientID: recipientID,
		Payload:     datatypes.JSON(data),
		Status:      models.JobPending,
	}
	if !job.IsValid() {
		return nil, fmt.Errorf("invalid notification job for template %q", template)
	}

	if err := s.jobs.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Deliverer sends one rendered notification to a user.
type Deliverer interface {
	Deliver(ctx context.Context, recipient *models.User, subject, body string) error
}

// LogDeliverer only logs; used when no delivery channel is configured.
type LogDeliverer struct {
	logger *logrus.Logger
}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{logger: newLogger()}
}

func (d *LogDeliverer) Deliver(ctx context.Context, recipient *models.User, subject, body string) error {
	d.logger.WithFields(logrus.Fields{
		"recipient_id": recipient.ID,
		"email":        recipient.Email,
		"subject":      subject,
	}).Info("Notification delivered to log")
	return nil
}

// MessageSender is the chat transport used by TelegramDeliverer.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// TelegramDeliverer sends notifications as chat messages to users with a chat id.
type TelegramDeliverer struct {
	sender   MessageSender
	fallback Deliverer
}

func NewTelegramDeliverer(sender MessageSender, fallback Deliverer) *TelegramDeliverer {
	return &TelegramDeliverer{sender: sender, fallback: fallback}
}

func (d *TelegramDeliverer) Deliver(ctx context.Context, recipient *models.User, subject, body string) error {
	if recipient.TelegramChatID == 0 {
		if d.fallback != nil {
			return d.fallback.Deliver(ctx, recipient, subject, body)
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.sender.SendMessage(recipient.TelegramChatID, subject+"\n\n"+body)
}

// Dispatcher drains the notification queue.
type Dispatcher struct {
	jobs        repository.NotificationJobRepository
	users       repository.UserRepository
	deliverer   Deliverer
	loc         *time.Location
	maxAttempts int
	batchSize   int
	now         func() time.Time
	logger      *logrus.Logger
}

func NewDispatcher(
	jobs repository.NotificationJobRepository,
	users repository.UserRepository,
	deliverer Deliverer,
	loc *time.Location,
) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &Dispatcher{
		jobs:        jobs,
		users:       users,
		deliverer:   deliverer,
		loc:         loc,
		maxAttempts: DefaultMaxAttempts,
		batchSize:   defaultBatchSize,
		now:         time.Now,
		logger:      newLogger(),
	}
}

// RunOnce delivers one batch of pending jobs. Delivery failures are recorded
// on the job and logged; only queue access errors are returned.
func (d *Dispatcher) RunOnce(ctx context.Context) (sent int, failed int, err error) {
	jobs, err := d.jobs.ListPending(d.batchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}

		log := d.logger.WithFields(logrus.Fields{
			"job_id":       job.ID.String(),
			"template":     job.Template,
			"recipient_id": job.RecipientID,
			"attempt":      job.Attempts + 1,
		})

		if deliverErr := d.deliver(ctx, job); deliverErr != nil {
			attempts := job.Attempts + 1
			final := attempts >= d.maxAttempts
			if err := d.jobs.MarkAttemptFailed(job.ID, attempts, deliverErr.Error(), final); err != nil {
				return sent, failed, err
			}
			failed++
			if final {
				log.WithError(deliverErr).Error("Notification delivery failed permanently")
			} else {
				log.WithError(deliverErr).Warn("Notification delivery failed, will retry")
			}
			continue
		}

		if err := d.jobs.MarkSent(job.ID, d.now()); err != nil {
			return sent, failed, err
		}
		sent++
		log.Info("Notification delivered")
	}

	return sent, failed, nil
}

func (d *Dispatcher) deliver(ctx context.Context, job *models.NotificationJob) error {
	recipient, err := d.users.GetByID(job.RecipientID)
	if err != nil {
		return err
	}
	if recipient == nil {
		return errors.New("recipient no longer exists")
	}

	subject, body, err := RenderMessage(job, d.loc)
	if err != nil {
		return err
	}
	return d.deliverer.Deliver(ctx, recipient, subject, body)
}

// RenderMessage turns a queued job into a subject and plain-text body.
func RenderMessage(job *models.NotificationJob, loc *time.Location) (string, string, error) {
	switch job.Template {
	case models.NotificationShiftsAssigned:
		var p ShiftsAssignedPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return "", "", fmt.Errorf("decode payload: %w", err)
		}
		return renderShiftsAssignedSubject(p), renderShiftsAssignedBody(p, loc), nil

	case models.NotificationShiftChanged:
		var p ShiftChangedPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return "", "", fmt.Errorf("decode payload: %w", err)
		}
		return "Your Shift Has Been Updated - " + p.RosterName, renderShiftChangedBody(p, loc), nil
	}
	return "", "", fmt.Errorf("unknown notification template %q", job.Template)
}

func renderShiftsAssignedSubject(p ShiftsAssignedPayload) string {
	const layout = "Monday, January 02"
	return fmt.Sprintf("Your Roster for %s to %s - %s",
		p.WeekStart.Format(layout), p.WeekEnd.Format(layout), p.RosterName)
}

func renderShiftsAssignedBody(p ShiftsAssignedPayload, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nHere are your shifts:\n", p.StaffName)
	for _, s := range p.Shifts {
		fmt.Fprintf(&b, "- %s %s %s-%s", titleCase(s.Day), s.Start.In(loc).Format("02 Jan"),
			s.Start.In(loc).Format("15:04"), s.End.In(loc).Format("15:04"))
		if s.Section != "" {
			fmt.Fprintf(&b, " (%s)", s.Section)
		}
		if s.HasBreak && s.BreakStart != nil && s.BreakEnd != nil {
			fmt.Fprintf(&b, ", break %s-%s", s.BreakStart.In(loc).Format("15:04"), s.BreakEnd.In(loc).Format("15:04"))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal paid hours: %s\n", p.TotalHours.StringFixed(2))
	return b.String()
}

func renderShiftChangedBody(p ShiftChangedPayload, loc *time.Location) string {
	describe := func(s models.ShiftSnapshot) string {
		return fmt.Sprintf("%s %s %s-%s", titleCase(s.DayOfWeek.String()),
			s.StartTime.In(loc).Format("02 Jan"), s.StartTime.In(loc).Format("15:04"), s.EndTime.In(loc).Format("15:04"))
	}
	return fmt.Sprintf("Hi %s,\n\nYour shift has changed.\nWas: %s\nNow: %s\n",
		p.StaffName, describe(p.Previous), describe(p.Current))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
