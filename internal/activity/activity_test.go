package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nexus-dash/apiserver/internal/mq"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
)

const testEventID = "5b8f0c1e-8d1a-4d0e-9a57-3f1b2c4d5e6f"

type memRecorder struct {
	mu      sync.Mutex
	entries []types.Activity
	done    chan struct{}
	fail    error
}

func (m *memRecorder) Record(_ context.Context, a types.Activity) error {
	if m.fail != nil {
		return m.fail
	}
	m.mu.Lock()
	m.entries = append(m.entries, a)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return nil
}

func TestPublishAndConsume(t *testing.T) {
	queue := mq.New(mq.NewMemoryBackend(8))
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec := &memRecorder{done: make(chan struct{}, 1)}
	go func() { _ = Consume(ctx, queue, "activity", rec, nil) }()

	pub := NewPublisher(queue, "activity", nil)
	pub.Publish(ctx, 7, KindSettingsChanged, "notifications.push")

	select {
	case <-rec.done:
	case <-ctx.Done():
		t.Fatalf("event was not recorded")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	got := rec.entries[0]
	if got.AccountID != 7 || got.Action != "Changed settings" || got.Details != "notifications.push" || got.Icon != "⚙️" {
		t.Fatalf("unexpected activity: %+v", got)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("id and timestamp must be set: %+v", got)
	}
}

func TestNilPublisherDiscards(t *testing.T) {
	var pub *Publisher
	pub.Publish(context.Background(), 1, KindJoined, "")
}

func TestHandlerDropsMalformed(t *testing.T) {
	rec := &memRecorder{}
	h := Handler(rec, nil)
	if err := h(context.Background(), mq.Message{ID: "m1", Data: []byte("not json")}); err != nil {
		t.Fatalf("malformed events must be acknowledged, got %v", err)
	}
	if err := h(context.Background(), mq.Message{ID: "m2", Data: []byte(`{"id":"`+testEventID+`","kind":"joined"}`)}); err != nil {
		t.Fatalf("events without account must be acknowledged, got %v", err)
	}
	if len(rec.entries) != 0 {
		t.Fatalf("malformed events must not be recorded")
	}
}

func TestHandlerReturnsRecordErrors(t *testing.T) {
	boom := errors.New("db down")
	h := Handler(&memRecorder{fail: boom}, nil)
	err := h(context.Background(), mq.Message{Data: []byte(`{"id":"`+testEventID+`","account_id":1,"kind":"joined"}`)})
	if !errors.Is(err, boom) {
		t.Fatalf("expected record error, got %v", err)
	}
}

func TestHandlerDropsEventsOfDeletedAccounts(t *testing.T) {
	gone := fmt.Errorf("account 9: %w", store.ErrNotFound)
	h := Handler(&memRecorder{fail: gone}, nil)
	msg := mq.Message{ID: "m3", Data: []byte(`{"id":"` + testEventID + `","account_id":9,"kind":"settings_changed"}`)}
	for i := 0; i < 3; i++ {
		if err := h(context.Background(), msg); err != nil {
			t.Fatalf("delivery %d: expected the event to be acknowledged, got %v", i+1, err)
		}
	}
}

func TestDecode(t *testing.T) {
	for _, payload := range []string{`{}`, `{"id":"x","account_id":1,"kind":"joined"}`} {
		if _, err := Decode([]byte(payload)); !errors.Is(err, ErrMalformedEvent) {
			t.Fatalf("%s: expected ErrMalformedEvent, got %v", payload, err)
		}
	}
	event, err := Decode([]byte(`{"id":"`+testEventID+`","account_id":2,"kind":"mystery"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a := event.Activity(); a.Action != "mystery" {
		t.Fatalf("unknown kinds keep their name, got %q", a.Action)
	}
}
