package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers mail through a plain SMTP endpoint.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer constructs a mailer. username may be empty for
// unauthenticated relays such as a local Mailpit instance.
func NewSMTPMailer(host string, port int, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers one message. The context bounds nothing here because
// net/smtp has no context support; asynq's task timeout covers the call.
func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String()))
}
