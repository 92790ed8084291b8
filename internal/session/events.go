package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/nfrund/presetmarket/internal/pubsub"
)

// TopicChanged carries one message per session transition.
const TopicChanged = "session.changed"

// ChangedPayload is the JSON body published on TopicChanged. The token
// itself is never published.
type ChangedPayload struct {
	Reason   Reason `json:"reason"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// PublishEvents returns a Listener that forwards session events to pub.
// Publishing failures are logged and otherwise ignored.
func PublishEvents(pub pubsub.Publisher, metadata func(ctx context.Context) map[string]string) Listener {
	return func(ctx context.Context, ev Event) {
		payload := ChangedPayload{Reason: ev.Reason}
		var userID string
		if p := ev.State.Profile; p != nil {
			payload.UserID = p.ID
			payload.Username = p.Username
			userID = strconv.FormatInt(p.ID, 10)
		}
		body, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to encode session event", "error", err)
			return
		}

		msg := pubsub.Message{Topic: TopicChanged, UserID: userID, Payload: body}
		if metadata != nil {
			msg.Metadata = metadata(ctx)
		}
		if err := pub.Publish(context.WithoutCancel(ctx), msg); err != nil {
			slog.WarnContext(ctx, "Failed to publish session event", "reason", string(ev.Reason), "error", err)
		}
	}
}

// AuditHandler logs one line per session transition received from the bus.
func AuditHandler(logger *slog.Logger) pubsub.Handler {
	return func(ctx context.Context, msg pubsub.Message) error {
		var payload ChangedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}
		attrs := []any{"reason", string(payload.Reason)}
		if payload.Username != "" {
			attrs = append(attrs, "user_id", payload.UserID, "username", payload.Username)
		}
		if rid := msg.Metadata["request_id"]; rid != "" {
			attrs = append(attrs, "request_id", rid)
		}
		logger.InfoContext(ctx, "Session changed", attrs...)
		return nil
	}
}
