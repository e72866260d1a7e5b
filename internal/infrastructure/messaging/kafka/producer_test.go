package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FigureLens/internal/application/recognition"
	"github.com/turtacn/FigureLens/internal/config"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func testProducer(w writerAPI) *Producer {
	return &Producer{writer: w, topic: TopicRecognitions, logger: logging.NewNopLogger()}
}

func sampleEvent() recognition.Event {
	return recognition.Event{
		Mode:        "visual",
		Succeeded:   true,
		BestEntryID: "momo-001",
		BestScore:   0.91,
		ElapsedMs:   42,
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestProducerImplementsEventSink(t *testing.T) {
	var _ recognition.EventSink = (*Producer)(nil)
}

func TestPublishEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := testProducer(w)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "momo-001", string(msg.Key))

	var got recognition.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "visual", got.Mode)
	assert.InDelta(t, 0.91, got.BestScore, 1e-9)

	sent, failed := p.Stats()
	assert.EqualValues(t, 1, sent)
	assert.EqualValues(t, 0, failed)
}

func TestPublishKeysByModeWhenNoMatch(t *testing.T) {
	w := &fakeWriter{}
	p := testProducer(w)

	ev := sampleEvent()
	ev.Succeeded = false
	ev.BestEntryID = ""
	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Equal(t, "visual", string(w.messages[0].Key))
}

func TestPublishReportsWriteFailure(t *testing.T) {
	w := &fakeWriter{err: assert.AnError}
	p := testProducer(w)

	err := p.Publish(context.Background(), sampleEvent())
	require.Error(t, err)
	_, failed := p.Stats()
	assert.EqualValues(t, 1, failed)
}

func TestClosedProducerRejectsPublish(t *testing.T) {
	w := &fakeWriter{}
	p := testProducer(w)
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), ErrProducerClosed)
	assert.True(t, w.closed)

	// Close twice is fine.
	assert.NoError(t, p.Close())
}

func TestNewProducerValidatesBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, logging.NewNopLogger())
	assert.Error(t, err)

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, TopicRecognitions, p.topic)
}
