// Package notify delivers attendee confirmations when a session is
// committed. The SMTP implementation is deliberately thin; deployments
// without a mail relay fall back to the log-only notifier.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

// SMTPConfig holds relay settings for outgoing confirmation mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends confirmation mail through a plain SMTP relay.
type SMTPNotifier struct {
	config SMTPConfig
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier constructs a notifier for the given relay.
func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{config: config, send: smtp.SendMail}
}

// NotifySessionScheduled mails one attendee that the session is locked in.
func (n *SMTPNotifier) NotifySessionScheduled(ctx context.Context, recipient string, schedule persistence.SessionSchedule, session persistence.ScheduledSession) error {
	if n == nil || n.config.Host == "" {
		return fmt.Errorf("smtp notifier not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	subject, body := confirmationMessage(schedule, session)
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)
	return n.send(addr, auth, n.config.From, []string{recipient}, []byte(msg.String()))
}

// LogNotifier records confirmations in the log instead of sending mail. Used
// when no SMTP relay is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// NotifySessionScheduled logs the confirmation that would have been mailed.
func (n *LogNotifier) NotifySessionScheduled(ctx context.Context, recipient string, schedule persistence.SessionSchedule, session persistence.ScheduledSession) error {
	subject, _ := confirmationMessage(schedule, session)
	n.logger.InfoContext(ctx, "session confirmation (mail disabled)",
		"recipient", recipient,
		"subject", subject,
		"scheduled_at", session.ScheduledAt,
	)
	return nil
}

func confirmationMessage(schedule persistence.SessionSchedule, session persistence.ScheduledSession) (subject, body string) {
	when := session.ScheduledAt.Format("Monday, 2 January 2006 at 15:04")
	subject = fmt.Sprintf("Session scheduled: %s", schedule.Title)
	body = fmt.Sprintf(
		"Your game session %q has been scheduled.\n\nWhen: %s\nDuration: %s\n\nSee you at the table!\n",
		schedule.Title,
		when,
		(time.Duration(session.DurationHours) * time.Hour).String(),
	)
	return subject, body
}
