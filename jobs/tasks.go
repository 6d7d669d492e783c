package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/citylink/citylink/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail carries outgoing-mail tasks at a lower priority.
	QueueMail = "mail"
	// TaskTypeSendEmail is the task type for sending a single email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeEventNotify fans out new-event mail to opted-in accounts.
	TaskTypeEventNotify = "event:notify"
	// TaskTypePurgeRevoked sweeps stale revoked-token entries.
	TaskTypePurgeRevoked = "maintenance:purge_revoked"
)

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// RecipientSource lists addresses of accounts opted into event mail.
type RecipientSource interface {
	OptedInEmails(ctx context.Context) ([]string, error)
}

// DenylistPurger removes stale revoked-token entries.
type DenylistPurger interface {
	PurgeStale(ctx context.Context) (int, error)
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EventNotifyPayload identifies the event to announce.
type EventNotifyPayload struct {
	EventID int64  `json:"event_id"`
	Name    string `json:"name"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewEventNotifyTask constructs an Asynq task.
func NewEventNotifyTask(payload EventNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeEventNotify, data), nil
}

// NewPurgeRevokedTask constructs the periodic cleanup task.
func NewPurgeRevokedTask() *asynq.Task {
	return asynq.NewTask(TaskTypePurgeRevoked, nil)
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks.
func NewSendEmailHandler(logger *slog.Logger, mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			logger.Warn("email delivery failed", slog.String("to", payload.To), slog.Any("error", err))
			return err
		}
		return nil
	}
}

// NewEventNotifyHandler processes TaskTypeEventNotify tasks. Delivery is
// best effort: a failing recipient is logged and skipped, not retried.
func NewEventNotifyHandler(logger *slog.Logger, mailer Mailer, recipients RecipientSource) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload EventNotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		emails, err := recipients.OptedInEmails(ctx)
		if err != nil {
			return err
		}
		subject := fmt.Sprintf("New event: %s", payload.Name)
		body := fmt.Sprintf("A new event %q has been published on CityLink.", payload.Name)
		delivered := 0
		for _, to := range emails {
			if err := mailer.Send(ctx, to, subject, body); err != nil {
				logger.Warn("event mail delivery failed",
					slog.Int64("event_id", payload.EventID),
					slog.String("to", to),
					slog.Any("error", err))
				continue
			}
			delivered++
		}
		logger.Info("event notification fan-out done",
			slog.Int64("event_id", payload.EventID),
			slog.Int("recipients", len(emails)),
			slog.Int("delivered", delivered))
		return nil
	}
}

// Instrument wraps a handler with run count, failure count, and duration
// collectors under the given job name.
func Instrument(m *jobmetrics.Metrics, job string, h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return m.Track(job).End(h(ctx, t))
	}
}

// NewPurgeRevokedHandler processes TaskTypePurgeRevoked tasks.
func NewPurgeRevokedHandler(logger *slog.Logger, purger DenylistPurger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := purger.PurgeStale(ctx)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Info("stale revoked tokens purged", slog.Int("count", purged))
		}
		return nil
	}
}
