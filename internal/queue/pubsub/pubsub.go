// Package pubsub implements the queue interfaces on Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub"

	"github.com/fredjeong/news-data-processing/internal/queue"
)

// Publisher sends payloads to a Pub/Sub topic.
type Publisher struct {
	client *gcppubsub.Client
	topic  *gcppubsub.Topic
}

// NewPublisher creates a Pub/Sub client and verifies the topic exists. It
// authenticates using Application Default Credentials.
func NewPublisher(ctx context.Context, projectID, topicID string) (*Publisher, error) {
	client, err := gcppubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish sends the payload and waits for the server acknowledgment, so a
// returned nil means the broker has the record.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	result := p.topic.Publish(ctx, &gcppubsub.Message{Data: payload})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close stops the topic publisher and the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}

// Consumer adapts Pub/Sub's push-style Receive loop to the pull-style
// queue.Consumer interface via an internal channel.
type Consumer struct {
	client *gcppubsub.Client
	sub    *gcppubsub.Subscription

	startOnce sync.Once
	msgs      chan []byte
	done      chan struct{}
	cancel    context.CancelFunc
	recvErr   error
}

// NewConsumer creates a consumer on an existing subscription. Replay from the
// earliest retained message is a property of the subscription's retention
// configuration, set at provisioning time.
func NewConsumer(ctx context.Context, projectID, subscriptionID string) (*Consumer, error) {
	client, err := gcppubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	sub := client.Subscription(subscriptionID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub subscription %q: %w", subscriptionID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub subscription %q does not exist in project %q", subscriptionID, projectID)
	}
	return &Consumer{
		client: client,
		sub:    sub,
		msgs:   make(chan []byte),
		done:   make(chan struct{}),
	}, nil
}

func (c *Consumer) start() {
	recvCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		defer close(c.done)
		c.recvErr = c.sub.Receive(recvCtx, func(_ context.Context, m *gcppubsub.Message) {
			select {
			case c.msgs <- m.Data:
				m.Ack()
			case <-recvCtx.Done():
				m.Nack()
			}
		})
	}()
}

// Next blocks for the next message.
func (c *Consumer) Next(ctx context.Context) ([]byte, error) {
	c.startOnce.Do(c.start)
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("consume canceled: %w", ctx.Err())
	case <-c.done:
		if c.recvErr != nil {
			return nil, fmt.Errorf("pubsub receive: %w", c.recvErr)
		}
		return nil, queue.ErrClosed
	case payload := <-c.msgs:
		return payload, nil
	}
}

// Close stops the receive loop and closes the client.
func (c *Consumer) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
