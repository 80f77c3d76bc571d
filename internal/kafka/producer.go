package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wedding-rsvp/internal/logger"
	"wedding-rsvp/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishSubmission streams a confirmed submission to the submissions topic.
// Messages are keyed by control number.
func (p *Producer) PublishSubmission(ctx context.Context, evt models.SubmissionEvent) error {
	msgBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal submission event: %w", err)
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ControlNumber),
		Value: msgBytes,
	}); err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", p.Topic, err.Error())
		return err
	}
	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("submission %s (%d guests)", evt.ControlNumber, evt.Guests))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
