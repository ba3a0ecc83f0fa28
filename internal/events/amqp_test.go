package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   string
	kind       string
	declareErr error
	publishErr error
	published  []amqp091.Publishing
	keys       []string
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp091.Table) error {
	f.declared = name
	f.kind = kind
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherDeclaresTopicExchange(t *testing.T) {
	ch := &fakeChannel{}
	_, err := newAMQPPublisher(ch, "fintrack.audit")
	require.NoError(t, err)

	assert.Equal(t, "fintrack.audit", ch.declared)
	assert.Equal(t, "topic", ch.kind)
}

func TestAMQPPublisherDeclareFailureClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newAMQPPublisher(ch, "fintrack.audit")

	require.Error(t, err)
	assert.True(t, ch.closed)
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "fintrack.audit")
	require.NoError(t, err)

	event := Event{
		ID:         "0190c5c2-0000-7000-8000-000000000001",
		Action:     "delete_category",
		EntityType: "category",
		EntityKey:  "food",
		Payload:    json.RawMessage(`{"reassigned":3}`),
		Timestamp:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "delete_category", ch.keys[0])

	msg := ch.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, event.ID, msg.MessageId)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "food", decoded.EntityKey)
	assert.JSONEq(t, `{"reassigned":3}`, string(decoded.Payload))
}

func TestAMQPPublisherPublishError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err := newAMQPPublisher(ch, "fintrack.audit")
	require.NoError(t, err)

	err = p.Publish(context.Background(), Event{Action: "create_category"})
	assert.ErrorContains(t, err, "channel closed")
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Action: "create_category"}))
	assert.NoError(t, p.Close())
}
