package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"live-poll-service/internal/domain"
)

const publishTimeout = 5 * time.Second

// mirrored is the envelope published on the events channel.
type mirrored struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      int64           `json:"at"`
}

// EventMirror copies session events to Redis for outside observers:
//   - every event is PUBLISHed on {prefix}:events
//   - chat messages are RPUSHed to {prefix}:chat
//   - {prefix}:session is a liveness marker refreshed while Run is active.
//
// Nothing is ever read back into the session. Broadcast never blocks; a full
// queue drops the event.
type EventMirror struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	queue  chan domain.Event
	logger *zap.Logger
}

func NewEventMirror(client *redis.Client, prefix string, ttl time.Duration, buffer int, logger *zap.Logger) *EventMirror {
	if prefix == "" {
		prefix = "livepoll"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventMirror{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		queue:  make(chan domain.Event, buffer),
		logger: logger,
	}
}

func (m *EventMirror) Broadcast(event domain.Event) {
	select {
	case m.queue <- event:
	default:
		m.logger.Warn("event mirror queue full, dropping", zap.String("event", event.Type))
	}
}

// Run publishes queued events until ctx is done, then clears the liveness key.
func (m *EventMirror) Run(ctx context.Context) error {
	m.markLive(ctx)
	refresh := time.NewTicker(m.ttl / 2)
	defer refresh.Stop()

	for {
		select {
		case event := <-m.queue:
			if err := m.publish(ctx, event); err != nil {
				m.logger.Warn("mirror event", zap.String("event", event.Type), zap.Error(err))
			}
		case <-refresh.C:
			m.markLive(ctx)
		case <-ctx.Done():
			cleanup, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			_ = m.client.Del(cleanup, m.SessionKey()).Err()
			return nil
		}
	}
}

func (m *EventMirror) EventsChannel() string { return m.prefix + ":events" }
func (m *EventMirror) ChatKey() string       { return m.prefix + ":chat" }
func (m *EventMirror) SessionKey() string    { return m.prefix + ":session" }

func (m *EventMirror) publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	body, err := json.Marshal(mirrored{Type: event.Type, Payload: payload, At: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pipe := m.client.Pipeline()
	pipe.Publish(ctx, m.EventsChannel(), body)
	if event.Type == domain.EventChatMessage {
		pipe.RPush(ctx, m.ChatKey(), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// best-effort liveness marker
func (m *EventMirror) markLive(ctx context.Context) {
	if err := m.client.Set(ctx, m.SessionKey(), time.Now().UTC().Format(time.RFC3339), m.ttl).Err(); err != nil {
		m.logger.Warn("mark session live", zap.Error(err))
	}
}
