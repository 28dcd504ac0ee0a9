// Package events provides the log-backed domain event publisher.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/chronicle-labs/docvault/internal/core/domain"
	"github.com/chronicle-labs/docvault/internal/core/ports/driven"
)

var _ driven.EventPublisher = (*LogPublisher)(nil)

// LogPublisher appends domain events as JSON lines to a log file.
// Best-effort by contract: callers log failures and move on.
type LogPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogPublisher opens (or creates) the event log at path, appending
// to any existing content.
func NewLogPublisher(path string) (*LogPublisher, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating event log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &LogPublisher{w: f}, nil
}

// NewWriterPublisher publishes to an arbitrary writer. Used in tests.
func NewWriterPublisher(w io.Writer) *LogPublisher {
	return &LogPublisher{w: w}
}

// Publish appends one event as a JSON line.
func (p *LogPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Close closes the underlying file when the writer is closeable.
func (p *LogPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
