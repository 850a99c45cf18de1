package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_Publish(t *testing.T) {
	writer := &recordingWriter{}
	producer := NewProducerWithWriter(writer, "reservation-events")

	msg, err := NewMessage().
		WithKey("court-1").
		WithEventType("reservation.booked").
		WithValue(map[string]string{"id": "r1"}).
		Build()
	require.NoError(t, err)

	require.NoError(t, producer.Publish(context.Background(), msg))
	require.Len(t, writer.messages, 1)

	sent := writer.messages[0]
	assert.Equal(t, "court-1", string(sent.Key))
	assert.JSONEq(t, `{"id":"r1"}`, string(sent.Value))
	assert.Equal(t, "reservation.booked", header(sent, HeaderEventType))
	assert.NotEmpty(t, header(sent, HeaderEventID))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	producer := NewProducerWithWriter(&recordingWriter{}, "t")

	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Value: []byte("{}")}), ErrEmptyKey)
	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	producer := NewProducerWithWriter(&recordingWriter{}, "t")

	var order []string
	for _, name := range []string{"first", "second"} {
		name := name
		producer.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	require.NoError(t, producer.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestProducer_WriteErrorAndClose(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	producer := NewProducerWithWriter(writer, "t")

	err := producer.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")})
	assert.ErrorContains(t, err, "broker down")

	require.NoError(t, producer.Close())
	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
	assert.ErrorIs(t, producer.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}), ErrProducerClosed)
}

func TestMessageBuilder_EncodingFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.Error(t, err)
}
