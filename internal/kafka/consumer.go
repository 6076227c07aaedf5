package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"aggies-attic/internal/changes"
	"aggies-attic/internal/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const readRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads change notifications back from Kafka.
type Consumer struct {
	reader messageReader
	log    *logger.Logger
}

// NewChangeConsumer joins a group of its own, so every instance receives
// every change made by any instance. It starts at the newest offset; past
// changes are not replayed.
func NewChangeConsumer(brokers []string, prefix string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("%s-changes-%s", prefix, uuid.NewString()),
		GroupTopics: ChangeTopics(prefix),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
	})
	return &Consumer{reader: reader, log: log}
}

// Run hands each decoded change to handle until ctx is done or the reader
// is closed. Undecodable messages are skipped.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, changes.Change)) {
	c.log.Info("KAFKA", "🔄 Change consumer started")
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.log.Info("KAFKA", "Change consumer stopped")
				return
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}

		var m message
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			c.log.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message from %s: %v", msg.Topic, err))
			continue
		}
		handle(ctx, m.Change)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
