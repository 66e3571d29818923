// Package history keeps a local record of past build runs.
package history

import (
	"context"
	"time"
)

// Entry is one recorded run.
type Entry struct {
	ID        int64
	BuildID   string
	Target    string
	Started   time.Time
	Duration  time.Duration
	Outcome   string
	ExitCode  int
	Revision  string
	Archive   string
	Log       string
	ConfigDir string
}

// Store persists run entries.
type Store interface {
	Record(ctx context.Context, e Entry) error
	// List returns up to limit entries, newest first. A limit of zero or less
	// returns every entry.
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// NoopStore discards entries; it is used when no history database is configured.
type NoopStore struct{}

func (NoopStore) Record(context.Context, Entry) error        { return nil }
func (NoopStore) List(context.Context, int) ([]Entry, error) { return nil, nil }
func (NoopStore) Close() error                               { return nil }
