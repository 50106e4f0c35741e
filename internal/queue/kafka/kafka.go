// Package kafka implements the queue interfaces on Apache Kafka.
package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Config holds the broker connection settings.
type Config struct {
	Brokers []string
	Topic   string
	// GroupID is the consumer group. The group starts from the earliest
	// retained offset so a fresh deployment replays the whole topic.
	GroupID string
}

// Publisher writes payloads to the article topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher constructs a Publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}
	return &Publisher{writer: writer}, nil
}

// Publish sends one payload to the topic.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.writer.WriteMessages(ctx, kafkago.Message{Value: payload}); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}

// Consumer reads payloads from the article topic.
type Consumer struct {
	reader *kafkago.Reader
}

// NewConsumer constructs a Consumer reading from the earliest offset.
func NewConsumer(cfg Config) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "newspipe-consumer"
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: reader}, nil
}

// Next blocks for the next message. ReadMessage commits offsets for the group
// automatically, which gives at-least-once delivery.
func (c *Consumer) Next(ctx context.Context) ([]byte, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("read kafka message: %w", err)
	}
	return msg.Value, nil
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("close kafka reader: %w", err)
	}
	return nil
}
