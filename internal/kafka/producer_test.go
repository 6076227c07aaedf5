package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"aggies-attic/internal/changes"
	"aggies-attic/internal/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

func TestNotifyPublishesToEntityTopic(t *testing.T) {
	w := new(MockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)

	p := &Producer{writer: w, prefix: "aggies", log: logger.NewWriterLogger(nil)}
	err := p.Notify(context.Background(), changes.Change{Entity: changes.EntityEvent, EntityID: "abc", Action: changes.ActionUpdated})
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Equal(t, "aggies.events.changed", sent[0].Topic)
	assert.Equal(t, []byte("abc"), sent[0].Key)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(sent[0].Value, &msg))
	assert.Equal(t, "event", msg["entity"])
	assert.Equal(t, "updated", msg["action"])
	assert.NotEmpty(t, msg["id"])
	assert.NotEmpty(t, msg["occurredAt"])
}

func TestPublishWrapsWriterError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available"))

	p := &Producer{writer: w, prefix: "aggies", log: logger.NewWriterLogger(nil)}
	err := p.Notify(context.Background(), changes.Change{Entity: changes.EntityListing, EntityID: "x", Action: changes.ActionDeleted})
	assert.ErrorContains(t, err, "aggies.listings.changed")
}

func TestChangeTopics(t *testing.T) {
	assert.Equal(t, []string{"aggies.events.changed", "aggies.listings.changed"}, ChangeTopics("aggies"))
}
