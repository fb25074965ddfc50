package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/example/session-scheduler/internal/persistence"
)

func fixtureSessionPair() (persistence.SessionSchedule, persistence.ScheduledSession) {
	schedule := persistence.SessionSchedule{ID: "schedule-1", Title: "Summer arc"}
	session := persistence.ScheduledSession{
		ID:            "session-1",
		ScheduleID:    "schedule-1",
		ScheduledAt:   time.Date(2024, time.June, 7, 18, 0, 0, 0, time.UTC),
		DurationHours: 2,
	}
	return schedule, session
}

func TestSMTPNotifier_NotifySessionScheduled(t *testing.T) {
	t.Parallel()

	schedule, session := fixtureSessionPair()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	notifier := NewSMTPNotifier(SMTPConfig{Host: "mail.example.com", Port: 587, From: "noreply@example.com"})
	notifier.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := notifier.NotifySessionScheduled(context.Background(), "alice@example.com", schedule, session); err != nil {
		t.Fatalf("NotifySessionScheduled failed: %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Fatalf("unexpected relay address %q", gotAddr)
	}
	if gotFrom != "noreply@example.com" || len(gotTo) != 1 || gotTo[0] != "alice@example.com" {
		t.Fatalf("unexpected envelope %q -> %v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	if !strings.Contains(body, "Subject: Session scheduled: Summer arc") {
		t.Fatalf("expected subject header, got %q", body)
	}
	if !strings.Contains(body, "Friday, 7 June 2024 at 18:00") {
		t.Fatalf("expected formatted start time, got %q", body)
	}
}

func TestSMTPNotifier_RequiresConfiguration(t *testing.T) {
	t.Parallel()

	schedule, session := fixtureSessionPair()
	notifier := NewSMTPNotifier(SMTPConfig{})
	if err := notifier.NotifySessionScheduled(context.Background(), "alice@example.com", schedule, session); err == nil {
		t.Fatalf("expected error for unconfigured relay")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	t.Parallel()

	schedule, session := fixtureSessionPair()
	if err := NewLogNotifier(nil).NotifySessionScheduled(context.Background(), "alice@example.com", schedule, session); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
