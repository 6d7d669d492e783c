package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent   []string
	failTo string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if to == m.failTo {
		return errors.New("relay refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

type fakeRecipients struct {
	emails []string
}

func (r *fakeRecipients) OptedInEmails(_ context.Context) ([]string, error) {
	return r.emails, nil
}

func TestEventNotifyFanOut(t *testing.T) {
	mailer := &fakeMailer{failTo: "b@example.org"}
	recipients := &fakeRecipients{emails: []string{"a@example.org", "b@example.org", "c@example.org"}}
	handler := NewEventNotifyHandler(slog.New(slog.DiscardHandler), mailer, recipients)

	task, err := NewEventNotifyTask(EventNotifyPayload{EventID: 7, Name: "Night Market"})
	require.NoError(t, err)

	// A failing recipient is skipped, not fatal.
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []string{"a@example.org", "c@example.org"}, mailer.sent)
}

func TestEventNotifySkipsBadPayload(t *testing.T) {
	handler := NewEventNotifyHandler(slog.New(slog.DiscardHandler), &fakeMailer{}, &fakeRecipients{})
	err := handler(context.Background(), asynq.NewTask(TaskTypeEventNotify, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakePurger struct {
	purged int
	err    error
}

func (p *fakePurger) PurgeStale(_ context.Context) (int, error) {
	return p.purged, p.err
}

func TestPurgeRevokedHandler(t *testing.T) {
	handler := NewPurgeRevokedHandler(slog.New(slog.DiscardHandler), &fakePurger{purged: 3})
	require.NoError(t, handler(context.Background(), NewPurgeRevokedTask()))

	handler = NewPurgeRevokedHandler(slog.New(slog.DiscardHandler), &fakePurger{err: errors.New("redis down")})
	require.Error(t, handler(context.Background(), NewPurgeRevokedTask()))
}
