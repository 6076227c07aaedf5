package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aggies-attic/internal/changes"
	"aggies-attic/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes change notifications. The topic is set per message, so
// one writer serves every topic.
type Producer struct {
	writer messageWriter
	prefix string
	log    *logger.Logger
}

func NewProducer(brokers []string, prefix string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &Producer{writer: writer, prefix: prefix, log: log}
}

// Topic is the topic for changes to entity, e.g. aggies.events.changed.
func (p *Producer) Topic(entity changes.Entity) string {
	return Topic(p.prefix, entity)
}

func Topic(prefix string, entity changes.Entity) string {
	return fmt.Sprintf("%s.%ss.changed", prefix, entity)
}

// message is the wire form of a change.
type message struct {
	ID string `json:"id"`
	changes.Change
}

func (p *Producer) Notify(ctx context.Context, c changes.Change) error {
	if c.OccurredAt.IsZero() {
		c.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(message{ID: uuid.NewString(), Change: c})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return p.Publish(ctx, p.Topic(c.Entity), c.EntityID, value)
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.log.Debug("KAFKA", fmt.Sprintf("published to %s key=%s", topic, key))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
