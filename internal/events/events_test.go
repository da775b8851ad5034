package events

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	block  chan struct{}
	closed bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func testLogger() *errors.Logger {
	return errors.NewLoggerTo(io.Discard, slog.LevelError)
}

func TestAMQPPublisher(t *testing.T) {
	score := 7
	event := ApplicationEvent{
		Type:          TypeTestCompleted,
		ApplicationID: "app-1",
		UserID:        "user-1",
		Status:        "test_taken",
		TestType:      "quiz",
		Score:         &score,
		MaxScore:      10,
		OccurredAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("publishes json to the application topic", func(t *testing.T) {
		ch := &fakeChannel{}
		p := newAMQPPublisher(ch, "application_updates", time.Second, testLogger())

		require.NoError(t, p.Publish(context.Background(), event))
		require.Len(t, ch.sent, 1)
		assert.Equal(t, "application_updates", ch.sent[0].exchange)
		assert.Equal(t, "application.app-1", ch.sent[0].key)
		assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)
		assert.Equal(t, amqp.Persistent, ch.sent[0].msg.DeliveryMode)

		var decoded ApplicationEvent
		require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &decoded))
		assert.Equal(t, event.Type, decoded.Type)
		assert.Equal(t, 7, *decoded.Score)
	})

	t.Run("broker error", func(t *testing.T) {
		ch := &fakeChannel{err: stderrors.New("channel closed")}
		p := newAMQPPublisher(ch, "x", time.Second, testLogger())

		err := p.Publish(context.Background(), event)
		require.Error(t, err)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrorTypeNetwork, appErr.Type)
	})

	t.Run("timeout", func(t *testing.T) {
		ch := &fakeChannel{block: make(chan struct{})}
		defer close(ch.block)
		p := newAMQPPublisher(ch, "x", 10*time.Millisecond, testLogger())

		err := p.Publish(context.Background(), event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("close", func(t *testing.T) {
		ch := &fakeChannel{}
		p := newAMQPPublisher(ch, "x", time.Second, testLogger())
		require.NoError(t, p.Close())
		assert.True(t, ch.closed)
	})
}

func TestNewPublisherDisabled(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Enabled: false}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), ApplicationEvent{}))
	assert.NoError(t, p.Close())
}
