package session

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/nfrund/presetmarket/internal/domain"
	"github.com/nfrund/presetmarket/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []pubsub.Message
}

func (p *capturePublisher) Publish(_ context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func TestPublishEvents(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["s3cr3t"] = &domain.Profile{ID: 5, Username: "eve"}
	pub := &capturePublisher{}
	meta := func(context.Context) map[string]string { return map[string]string{"request_id": "r1"} }
	store := NewStore(&memStorage{}, auth, testLoginURL, WithListener(PublishEvents(pub, meta)))

	require.NoError(t, store.CompleteLogin(context.Background(), "s3cr3t"))
	require.NoError(t, store.Logout(context.Background()))

	require.Len(t, pub.msgs, 3)
	var payloads []ChangedPayload
	for _, m := range pub.msgs {
		assert.Equal(t, TopicChanged, m.Topic)
		assert.Equal(t, "r1", m.Metadata["request_id"])
		assert.NotContains(t, string(m.Payload), "s3cr3t", "the token is never published")
		var p ChangedPayload
		require.NoError(t, json.Unmarshal(m.Payload, &p))
		payloads = append(payloads, p)
	}
	assert.Equal(t, ReasonTokenAdopted, payloads[0].Reason)
	assert.Equal(t, ChangedPayload{Reason: ReasonAuthenticated, UserID: 5, Username: "eve"}, payloads[1])
	assert.Equal(t, "5", pub.msgs[1].UserID)
	assert.Equal(t, ReasonLoggedOut, payloads[2].Reason)
}

func TestAuditHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := AuditHandler(logger)

	body, _ := json.Marshal(ChangedPayload{Reason: ReasonAuthenticated, UserID: 5, Username: "eve"})
	require.NoError(t, handler(context.Background(), pubsub.Message{
		Topic:    TopicChanged,
		Payload:  body,
		Metadata: map[string]string{"request_id": "r1"},
	}))
	assert.Contains(t, buf.String(), `"msg":"Session changed"`)
	assert.Contains(t, buf.String(), `"username":"eve"`)
	assert.Contains(t, buf.String(), `"request_id":"r1"`)

	assert.Error(t, handler(context.Background(), pubsub.Message{Payload: []byte("{")}))
}
