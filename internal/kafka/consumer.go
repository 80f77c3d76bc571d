package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DefaultRetryBackoff is the pause after a failed read.
const DefaultRetryBackoff = time.Second

type Consumer struct {
	Reader       MessageReader
	Topic        string
	Logger       *logger.Logger
	RetryBackoff time.Duration
}

// NewConsumer reads the topic in its own consumer group, so every API
// instance sees every submission. A new group starts at the newest offset;
// submissions made before the instance started are not replayed.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{Reader: reader, Topic: topic, Logger: log, RetryBackoff: DefaultRetryBackoff}
}

// Start blocks until ctx is cancelled, handing every decoded event to handler.
func (c *Consumer) Start(ctx context.Context, handler func(models.SubmissionEvent)) {
	c.Logger.LogKafka("CONSUMER_START", c.Topic, "consumer started")

	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Logger.LogKafka("CONSUMER_STOP", c.Topic, "consumer stopped")
				return
			}
			c.Logger.LogKafka("READ_FAILED", c.Topic, err.Error())
			if !c.wait(ctx) {
				c.Logger.LogKafka("CONSUMER_STOP", c.Topic, "consumer stopped")
				return
			}
			continue
		}

		var evt models.SubmissionEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.Logger.LogKafka("DECODE_FAILED", c.Topic, fmt.Sprintf("offset %d: %v", msg.Offset, err))
			continue
		}

		c.Logger.Debug("KAFKA", fmt.Sprintf("Received submission event: %s", evt.ControlNumber))
		handler(evt)
	}
}

// wait sleeps for the retry backoff and reports false if ctx ended first.
func (c *Consumer) wait(ctx context.Context) bool {
	backoff := c.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
