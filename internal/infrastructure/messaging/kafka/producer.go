// Package kafka publishes recognition events to a Kafka topic so downstream
// consumers (analytics, catalog curation) can observe match outcomes.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/FigureLens/internal/application/recognition"
	"github.com/turtacn/FigureLens/internal/config"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// TopicRecognitions is the default topic for recognition events.
const TopicRecognitions = "figurelens.recognitions"

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

// writerAPI abstracts kafka.Writer for testing.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes recognition events.  It implements
// recognition.EventSink; the orchestrator treats publish failures as
// best effort, so the producer only reports them.
type Producer struct {
	writer writerAPI
	topic  string
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer builds a Kafka-backed event producer.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = TopicRecognitions
	}
	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            retries + 1,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		logger: log.Named("events.kafka"),
	}, nil
}

// Publish sends one recognition event.  The message key is the matched entry
// id so events for the same figure land on the same partition.
func (p *Producer) Publish(ctx context.Context, ev recognition.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event")
	}
	key := ev.BestEntryID
	if key == "" {
		key = ev.Mode
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "mode", Value: []byte(ev.Mode)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to publish recognition event")
	}
	p.sent.Add(1)

	p.logger.Debug("Recognition event published",
		logging.String("topic", p.topic),
		logging.String("mode", ev.Mode),
		logging.Bool("succeeded", ev.Succeeded),
	)
	return nil
}

// Stats reports published and failed message counts.
func (p *Producer) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close shuts the producer down.  Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
