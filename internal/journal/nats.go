// Package journal publishes room lifecycle changes to NATS so other services
// can follow which rooms exist and who is in them.
//
// Publishing is best effort. Changes are queued in memory and sent from a
// single goroutine; when the queue is full a change is dropped and logged, so
// a slow or unreachable broker never holds up the chat engine.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Tyrowin/gochat-rooms/internal/chat"
)

const queueSize = 1024

type publishFunc func(subject string, data []byte) error

// NATS is a chat.Journal backed by a core NATS connection.
type NATS struct {
	conn    *nats.Conn
	publish publishFunc
	prefix  string
	logger  *slog.Logger

	queue chan chat.Change
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// ConnectNATS dials url and returns a journal publishing under subject.
func ConnectNATS(url, subject string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("gochat-rooms"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return NewNATS(conn, subject, logger), nil
}

// NewNATS wraps an established connection. The journal owns conn from here
// on and drains it on Close.
func NewNATS(conn *nats.Conn, subject string, logger *slog.Logger) *NATS {
	j := newJournal(conn.Publish, subject, logger)
	j.conn = conn
	return j
}

func newJournal(publish publishFunc, subject string, logger *slog.Logger) *NATS {
	if logger == nil {
		logger = slog.Default()
	}
	j := &NATS{
		publish: publish,
		prefix:  subject,
		logger:  logger,
		queue:   make(chan chat.Change, queueSize),
		done:    make(chan struct{}),
	}
	go j.run()
	return j
}

// Subject returns the subject a change of the given kind is published on.
func Subject(prefix string, kind chat.ChangeKind) string {
	return prefix + "." + string(kind)
}

// Record queues c for publishing. It never blocks.
func (j *NATS) Record(c chat.Change) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}

	select {
	case j.queue <- c:
	default:
		j.logger.Warn("journal queue full, dropping change", "kind", c.Kind, "room", c.Room)
	}
}

func (j *NATS) run() {
	defer close(j.done)

	for c := range j.queue {
		data, err := json.Marshal(c)
		if err != nil {
			j.logger.Error("encode change", "kind", c.Kind, "error", err)
			continue
		}
		if err := j.publish(Subject(j.prefix, c.Kind), data); err != nil {
			j.logger.Warn("publish change", "kind", c.Kind, "room", c.Room, "error", err)
		}
	}
}

// Close stops accepting changes, publishes what is already queued, and
// drains the NATS connection. It returns ctx.Err() if ctx ends first.
func (j *NATS) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()

	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if j.conn == nil {
		return nil
	}
	if err := j.conn.Drain(); err != nil {
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
