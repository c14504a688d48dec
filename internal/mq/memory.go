package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMemoryBuffer = 256

// ErrClosed is returned by a closed memory backend.
var ErrClosed = errors.New("mq closed")

// MemoryBackend delivers messages through buffered channels inside the
// process. A message whose handler fails is dropped.
type MemoryBackend struct {
	// closeMu is held for reading by publishers so Close never closes a
	// queue under an in-flight send.
	closeMu sync.RWMutex
	closed  bool

	mu     sync.Mutex
	queues map[string]chan Message
	buffer int
}

// NewMemoryBackend returns a backend whose queues hold up to buffer messages.
func NewMemoryBackend(buffer int) *MemoryBackend {
	if buffer < 1 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryBackend{
		queues: make(map[string]chan Message),
		buffer: buffer,
	}
}

// Publish enqueues the message, blocking while the queue is full.
func (m *MemoryBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}

	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return "", ErrClosed
	}

	q := m.queue(channel)
	msg := Message{
		ID:         uuid.NewString(),
		Data:       append([]byte(nil), data...),
		Attributes: copyAttrs(attrs),
	}
	select {
	case q <- msg:
		return msg.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Subscribe consumes the named queue until ctx is done or the backend is
// closed.
func (m *MemoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}

	m.closeMu.RLock()
	if m.closed {
		m.closeMu.RUnlock()
		return ErrClosed
	}
	q := m.queue(channel)
	m.closeMu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-q:
			if !ok {
				return ErrClosed
			}
			_ = handler(ctx, msg)
		}
	}
}

// Close closes every queue; pending messages are drained by subscribers.
func (m *MemoryBackend) Close() error {
	m.closeMu.Lock()
	defer m.closeMu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.queues {
		close(q)
	}
	return nil
}

func (m *MemoryBackend) queue(channel string) chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[channel]
	if !ok {
		q = make(chan Message, m.buffer)
		m.queues[channel] = q
	}
	return q
}

func copyAttrs(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
