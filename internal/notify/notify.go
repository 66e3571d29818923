// Package notify publishes build completion events.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Event describes a finished run.
type Event struct {
	BuildID    string    `json:"build_id"`
	Target     string    `json:"target"`
	Outcome    string    `json:"outcome"`
	ExitCode   int       `json:"exit_code"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"duration_ms"`
	Revision   string    `json:"revision,omitempty"`
	Archive    string    `json:"archive,omitempty"`
	PDF        string    `json:"pdf,omitempty"`
	Log        string    `json:"log,omitempty"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close()                               {}

// NATSPublisher publishes events as JSON messages on "<subject>.<outcome>",
// so subscribers can listen on "<subject>.>" or on failures only.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. The connection is owned by the publisher.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("NATS subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("tidyarxiv"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Debug("NATS publisher connected", "url", url, "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends e and flushes, so delivery to the server is confirmed before returning.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}
	subject := Subject(p.subject, e)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush NATS connection: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Encode renders e as the message payload.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Subject returns the subject an event is published on.
func Subject(base string, e Event) string {
	if e.Outcome == "" {
		return base
	}
	return base + "." + e.Outcome
}
