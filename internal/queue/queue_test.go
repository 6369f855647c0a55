package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_PublishConsume(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, _ := json.Marshal(map[string]string{"outcome": "success"})
	require.NoError(t, q.Publish(ctx, Message{Type: "outcome", Body: body}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "outcome", msg.Type)
		var decoded map[string]string
		require.NoError(t, json.Unmarshal(msg.Body, &decoded))
		assert.Equal(t, "success", decoded["outcome"])
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestInMemory_PublishHonorsCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Publish(ctx, Message{Type: "outcome"}))

	// queue full, cancelled publish must not block
	cancel()
	err := q.Publish(ctx, Message{Type: "outcome"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemory_ConsumeStopsOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-msgs:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("consume channel did not close")
	}
}
