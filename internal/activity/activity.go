// Package activity publishes account activity events on the message queue
// and records them into the activity log.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexus-dash/apiserver/internal/mq"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
	"go.uber.org/zap"
)

// Kind identifies what happened; each kind has a display label and icon.
type Kind string

const (
	KindJoined            Kind = "joined"
	KindProfileUpdated    Kind = "profile_updated"
	KindAvatarUploaded    Kind = "avatar_uploaded"
	KindSettingsChanged   Kind = "settings_changed"
	KindDirectoryReloaded Kind = "directory_reloaded"
)

var kinds = map[Kind]struct {
	label string
	icon  string
}{
	KindJoined:            {"Joined team", "👥"},
	KindProfileUpdated:    {"Updated profile", "👤"},
	KindAvatarUploaded:    {"Uploaded files", "📤"},
	KindSettingsChanged:   {"Changed settings", "⚙️"},
	KindDirectoryReloaded: {"Reloaded directory", "🔄"},
}

// Event is the wire form of an activity.
type Event struct {
	ID         string    `json:"id"`
	AccountID  int       `json:"account_id"`
	Kind       Kind      `json:"kind"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Activity converts the event to its feed entry.
func (e Event) Activity() types.Activity {
	meta, ok := kinds[e.Kind]
	if !ok {
		meta.label = string(e.Kind)
		meta.icon = "•"
	}
	return types.Activity{
		ID:        e.ID,
		AccountID: e.AccountID,
		Action:    meta.label,
		Details:   e.Details,
		Icon:      meta.icon,
		CreatedAt: e.OccurredAt,
	}
}

// Publisher emits events on one channel. A nil *Publisher discards events.
type Publisher struct {
	queue   *mq.MQ
	channel string
	logger  *zap.Logger
	now     func() time.Time
}

// NewPublisher constructs a Publisher.
func NewPublisher(queue *mq.MQ, channel string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{queue: queue, channel: channel, logger: logger, now: time.Now}
}

// Publish is best effort: a failure is logged and never reaches the caller.
func (p *Publisher) Publish(ctx context.Context, accountID int, kind Kind, details string) {
	if p == nil || p.queue == nil {
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Kind:       kind,
		Details:    details,
		OccurredAt: p.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("encode_activity", zap.Error(err))
		return
	}

	attrs := map[string]string{
		mq.ContentTypeAttr: "application/json",
		mq.OrderingKeyAttr: strconv.Itoa(accountID),
		"kind":             string(kind),
	}
	if _, err := p.queue.Publish(ctx, p.channel, data, attrs); err != nil {
		p.logger.Warn("publish_activity",
			zap.String("channel", p.channel),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}

// Recorder persists feed entries.
type Recorder interface {
	Record(ctx context.Context, activity types.Activity) error
}

// ErrMalformedEvent is returned for payloads that cannot be decoded.
var ErrMalformedEvent = errors.New("malformed activity event")

// Handler decodes events and records them. Malformed events and events of
// deleted accounts are acknowledged and dropped; only transient record
// failures are returned for redelivery.
func Handler(recorder Recorder, logger *zap.Logger) mq.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, msg mq.Message) error {
		event, err := Decode(msg.Data)
		if err != nil {
			logger.Warn("drop_activity", zap.String("message_id", msg.ID), zap.Error(err))
			return nil
		}
		if err := recorder.Record(ctx, event.Activity()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("drop_activity",
					zap.String("event_id", event.ID),
					zap.Int("account_id", event.AccountID),
					zap.Error(err),
				)
				return nil
			}
			logger.Error("record_activity", zap.String("event_id", event.ID), zap.Error(err))
			return err
		}
		return nil
	}
}

// Decode parses and checks an event payload.
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if _, err := uuid.Parse(event.ID); err != nil {
		return Event{}, fmt.Errorf("%w: bad id %q", ErrMalformedEvent, event.ID)
	}
	if event.AccountID < 1 || strings.TrimSpace(string(event.Kind)) == "" {
		return Event{}, fmt.Errorf("%w: missing account or kind", ErrMalformedEvent)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event, nil
}

// Consume blocks, recording events from channel until ctx is done.
func Consume(ctx context.Context, queue *mq.MQ, channel string, recorder Recorder, logger *zap.Logger) error {
	return queue.Subscribe(ctx, channel, Handler(recorder, logger))
}
