package sendfollowupreminders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/dustin/go-humanize"

	notify "jobtrail/internal/common/aws"
	apperrors "jobtrail/internal/common/errors"
	"jobtrail/internal/common/logger"
	"jobtrail/internal/common/metrics"
	"jobtrail/internal/common/observability"
	"jobtrail/internal/models"
	"jobtrail/internal/store"
	"jobtrail/internal/tracker"
)

const (
	TaskType = "send-follow-up-reminders"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

// ReminderSource lists who wants reminders and what they have pending.
type ReminderSource interface {
	ListReminderRecipients(ctx context.Context) ([]models.ReminderRecipient, error)
	ListFollowUps(ctx context.Context, userID string, q store.FollowUpQuery) ([]models.FollowUp, error)
}

type Handler struct {
	config     *Config
	source     ReminderSource
	email      notify.EmailSender
	sms        notify.SMSPublisher
	today      func() models.Date
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

// NewHandler wires the reminder worker. email and sms may be nil when the
// matching channel is disabled.
func NewHandler(config *Config, source ReminderSource, email notify.EmailSender, sms notify.SMSPublisher, today func() models.Date, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if obs == nil {
		obs = &observability.Observability{}
	}
	return &Handler{
		config:     config,
		source:     source,
		email:      email,
		sms:        sms,
		today:      today,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.handle(ctx, []byte(job.Variables))
	status := "completed"
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
		h.errHandler.HandleJobError(ctx, client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
		h.completeJob(ctx, client, job, output)
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}

func (h *Handler) handle(ctx context.Context, variables []byte) (*Output, error) {
	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return h.execute(ctx, &input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	today := h.today()
	if input.Date != "" {
		d, err := models.ParseDate(input.Date)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		today = d
	}

	recipients, err := h.source.ListReminderRecipients(ctx)
	if err != nil {
		return nil, err
	}

	out := &Output{Date: today.String()}
	var lastErr error
	for _, r := range recipients {
		followUps, err := h.source.ListFollowUps(ctx, r.UserID, store.FollowUpQuery{IncompleteOnly: true})
		if err != nil {
			h.logger.Error("failed to list follow-ups", map[string]interface{}{
				"userId": r.UserID,
				"error":  err.Error(),
			})
			out.Failed++
			lastErr = err
			continue
		}

		due := tracker.ClassifyFollowUps(followUps, today)
		if len(due.Today) == 0 && len(due.PastDue) == 0 {
			out.Skipped++
			continue
		}

		sent, err := h.remind(ctx, r, due, today, out)
		switch {
		case err != nil && sent == 0:
			out.Failed++
			lastErr = err
		case sent > 0:
			out.UsersNotified++
		default:
			out.Skipped++
		}
	}

	if out.Failed > 0 && out.UsersNotified == 0 {
		return nil, apperrors.NewNotificationSendFailedError("reminders", lastErr)
	}

	h.logger.Info("follow-up reminders sent", map[string]interface{}{
		"date":          out.Date,
		"usersNotified": out.UsersNotified,
		"emailsSent":    out.EmailsSent,
		"smsSent":       out.SMSSent,
		"skipped":       out.Skipped,
		"failed":        out.Failed,
	})
	return out, nil
}

// remind sends every enabled channel to one user and returns how many went out.
func (h *Handler) remind(ctx context.Context, r models.ReminderRecipient, due tracker.FollowUpBuckets, today models.Date, out *Output) (int, error) {
	sent := 0
	var lastErr error

	if h.config.EmailEnabled && h.email != nil && r.EmailNotifications && r.Email != "" {
		subject, text := reminderEmail(due, today)
		_, err := h.email.SendEmail(ctx, notify.BuildEmail(h.config.FromEmail, r.Email, subject, text, ""))
		if err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"userId": r.UserID,
				"error":  err.Error(),
			})
			metrics.RemindersSent.WithLabelValues(channelEmail, "failed").Inc()
			lastErr = err
		} else {
			metrics.RemindersSent.WithLabelValues(channelEmail, "sent").Inc()
			out.EmailsSent++
			sent++
		}
	}

	if h.config.SMSEnabled && h.sms != nil && r.Phone != "" && len(due.PastDue) > 0 {
		_, err := h.sms.Publish(ctx, notify.BuildSMS(r.Phone, reminderSMS(due, today)))
		if err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"userId": r.UserID,
				"error":  err.Error(),
			})
			metrics.RemindersSent.WithLabelValues(channelSMS, "failed").Inc()
			lastErr = err
		} else {
			metrics.RemindersSent.WithLabelValues(channelSMS, "sent").Inc()
			out.SMSSent++
			sent++
		}
	}

	return sent, lastErr
}

func reminderEmail(due tracker.FollowUpBuckets, today models.Date) (string, string) {
	total := len(due.Today) + len(due.PastDue)
	subject := fmt.Sprintf("You have %d follow-ups to send", total)
	if total == 1 {
		subject = "You have 1 follow-up to send"
	}

	var b strings.Builder
	if len(due.Today) > 0 {
		b.WriteString("Due today:\n")
		for _, fu := range due.Today {
			fmt.Fprintf(&b, "- %s follow-up: %s at %s\n", fu.FollowUpType, fu.Role, company(fu))
		}
	}
	if len(due.PastDue) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Past due:\n")
		for _, fu := range due.PastDue {
			fmt.Fprintf(&b, "- %s follow-up: %s at %s (due %s)\n", fu.FollowUpType, fu.Role, company(fu), relative(fu.FollowUpDate, today))
		}
	}
	return subject, b.String()
}

func reminderSMS(due tracker.FollowUpBuckets, today models.Date) string {
	oldest := due.PastDue[0]
	for _, fu := range due.PastDue[1:] {
		if fu.FollowUpDate.Before(oldest.FollowUpDate) {
			oldest = fu
		}
	}
	return fmt.Sprintf("JobTrail: %d follow-ups past due. Oldest: %s, due %s.",
		len(due.PastDue), company(oldest), relative(oldest.FollowUpDate, today))
}

func relative(d, today models.Date) string {
	return humanize.RelTime(d.Time(), today.Time(), "ago", "from now")
}

func company(fu models.FollowUp) string {
	if fu.Company == "" {
		return "Unknown Company"
	}
	return fu.Company
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
