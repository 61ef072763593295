package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := p.Publish(context.Background(), RegistrationSubmitted, RegistrationSubmittedEvent{
		RegistrationID: "r1",
		HackathonID:    "1",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"subject":"registration.submitted"`) {
		t.Errorf("missing subject: %s", out)
	}
	if !strings.Contains(out, `registration_id`) {
		t.Errorf("missing payload: %s", out)
	}
}

func TestLogPublisherRejectsUnencodable(t *testing.T) {
	p := NewLog(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	if err := p.Publish(context.Background(), ProfileRefreshed, make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
}
