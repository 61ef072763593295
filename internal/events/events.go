// Package events publishes domain events for other services to consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	RegistrationSubmitted = "registration.submitted"
	ProfileRefreshed      = "profile.refreshed"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close() error
}

type RegistrationSubmittedEvent struct {
	RegistrationID string    `json:"registration_id"`
	ClientID       string    `json:"client_id"`
	HackathonID    string    `json:"hackathon_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type ProfileRefreshedEvent struct {
	IdentityID  string    `json:"identity_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type NATS struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewNATS(url string, logger *slog.Logger) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("studio-hub"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}
	return &NATS{conn: conn, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	n.logger.DebugContext(ctx, "publishing event", "subject", subject)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Ping reports whether the connection is usable.
func (n *NATS) Ping(ctx context.Context) error {
	if !n.conn.IsConnected() {
		return fmt.Errorf("nats: %s", n.conn.Status())
	}
	return n.conn.FlushWithContext(ctx)
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}

// Log is used when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", subject, err)
	}
	l.logger.InfoContext(ctx, "event", "subject", subject, "data", string(payload))
	return nil
}

func (l *Log) Close() error { return nil }
