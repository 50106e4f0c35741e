// Package queue defines the message queue interfaces for the article topic.
// The abstraction keeps the pipeline independent of the broker; Kafka is the
// reference deployment, with Pub/Sub and an in-memory queue as alternatives.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed is returned when consuming from a closed queue.
var ErrClosed = errors.New("queue closed")

// Publisher sends encoded article payloads to the topic.
type Publisher interface {
	// Publish sends one payload. Implementations may batch or retry
	// internally; an error means the payload should be considered dropped.
	Publish(ctx context.Context, payload []byte) error

	// Close flushes and releases broker resources.
	Close() error
}

// Consumer reads payloads from the topic, starting at the earliest retained
// offset. Delivery is at-least-once; downstream persistence is idempotent
// per URL, so redelivery is harmless.
type Consumer interface {
	// Next blocks until a payload is available or the context ends.
	Next(ctx context.Context) ([]byte, error)

	// Close releases broker resources; pending Next calls return ErrClosed.
	Close() error
}

// Encode marshals a payload as JSON without HTML escaping, keeping Korean
// text readable on the wire.
func Encode(payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	// Encoder appends a trailing newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
