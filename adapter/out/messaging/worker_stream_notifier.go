package messaging

import (
	"context"
	"fmt"
	"time"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StreamDraftsReady is the default stream drafted items are published to.
const StreamDraftsReady = "drafts:ready"

// DraftEvent is the payload published for each drafted item.
type DraftEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	Markdown  string    `json:"markdown"`
	HasImage  bool      `json:"has_image"`
	CreatedAt time.Time `json:"created_at"`
}

// StreamNotifier publishes notifications to a Redis stream for downstream tools.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	now    func() time.Time
}

var _ out.Notifier = (*StreamNotifier)(nil)

// NewStreamNotifier creates a notifier publishing to stream (StreamDraftsReady when
// empty), trimmed to roughly maxLen entries when maxLen > 0.
func NewStreamNotifier(client *redis.Client, stream string, maxLen int64) *StreamNotifier {
	if stream == "" {
		stream = StreamDraftsReady
	}
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen, now: time.Now}
}

// Name implements out.Notifier.
func (n *StreamNotifier) Name() string { return "redis-stream" }

// Notify publishes one DraftEvent.
func (n *StreamNotifier) Notify(ctx context.Context, note *domain.Notification) error {
	event := &DraftEvent{
		ID:        uuid.New().String(),
		Type:      "draft.ready",
		Subject:   note.Subject,
		Text:      note.Text,
		Markdown:  note.Markdown,
		HasImage:  note.Image != nil,
		CreatedAt: n.now().UTC(),
	}
	return n.publish(ctx, event)
}

// publish adds event to the stream under the "data" field.
func (n *StreamNotifier) publish(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: n.stream,
		ID:     "*",
		Values: map[string]any{"data": string(data)},
	}
	if n.maxLen > 0 {
		args.MaxLen = n.maxLen
		args.Approx = true
	}
	if err := n.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.stream, err)
	}
	return nil
}
