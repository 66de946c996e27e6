package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/testutil"
)

type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockKafkaReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (m *mockKafkaReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type capturePublisher struct {
	msgs []*ProducerMessage
	err  error
}

func (c *capturePublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, RetryBackoff: time.Millisecond, MaxRetryBackoff: 2 * time.Millisecond, DeadLetterTopic: "dlq"}
}

func TestNewConsumer_Validation(t *testing.T) {
	cfg := newTestKafkaConfig()
	cfg.GroupID = ""
	_, err := NewConsumer(cfg, nil, nil)
	assert.Error(t, err)

	cfg = newTestKafkaConfig()
	cfg.InputTopic = ""
	_, err = NewConsumer(cfg, nil, nil)
	assert.Error(t, err)
}

func TestStart_AlreadyRunning(t *testing.T) {
	c := newConsumer(&mockKafkaReader{}, fastRetry(0), testutil.NewMockLogger())
	c.running.Store(true)
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
}

func TestConsumeLoop_HandlesAndCommits(t *testing.T) {
	r := &mockKafkaReader{queue: []kafka.Message{
		{Topic: "raw", Offset: 0, Value: []byte("a"), Headers: []kafka.Header{{Key: "x", Value: []byte("1")}}},
		{Topic: "other", Offset: 1, Value: []byte("b")},
	}}
	c := newConsumer(r, fastRetry(0), testutil.NewMockLogger())

	got := make(chan *Message, 1)
	c.Subscribe("raw", func(ctx context.Context, msg *Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-got:
		assert.Equal(t, "a", string(msg.Value))
		assert.Equal(t, "1", msg.Headers["x"])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
	assert.Eventually(t, func() bool { return r.commits() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
	m := c.GetMetrics()
	assert.Equal(t, int64(2), m.MessagesConsumed)
	assert.Equal(t, int64(1), m.MessagesProcessed)
	assert.False(t, m.LastConsumedAt.IsZero())
}

func TestProcessMessage_RetrySuccess(t *testing.T) {
	c := newConsumer(nil, fastRetry(2), testutil.NewMockLogger())
	attempts := 0
	err := c.processMessage(context.Background(), &Message{}, func(ctx context.Context, msg *Message) error {
		attempts++
		if attempts < 2 {
			return errors.New("fail")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, int64(1), c.GetMetrics().MessagesRetried)
}

func TestProcessMessage_DeadLetter(t *testing.T) {
	c := newConsumer(nil, fastRetry(1), testutil.NewMockLogger())
	dlq := &capturePublisher{}
	c.deadLetter = dlq

	msg := &Message{Topic: "raw", Key: []byte("k"), Value: []byte("v"), Headers: map[string]string{"event_type": EventRecordRaw}}
	err := c.processMessage(context.Background(), msg, func(context.Context, *Message) error {
		return errors.New("sink down")
	})
	require.NoError(t, err)
	require.Len(t, dlq.msgs, 1)

	dl := dlq.msgs[0]
	assert.Equal(t, "dlq", dl.Topic)
	assert.Equal(t, "raw", dl.Headers[HeaderOriginalTopic])
	assert.Equal(t, "sink down", dl.Headers[HeaderError])
	assert.Equal(t, "2", dl.Headers[HeaderAttempts])
	assert.Equal(t, EventRecordRaw, dl.Headers[HeaderEventType])
	assert.NotContains(t, msg.Headers, HeaderOriginalTopic)
	assert.Equal(t, int64(1), c.GetMetrics().MessagesDeadLettered)
}

func TestProcessMessage_CancelledDuringBackoff(t *testing.T) {
	c := newConsumer(nil, RetryConfig{MaxRetries: 3, RetryBackoff: time.Hour}, testutil.NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.processMessage(ctx, &Message{}, func(context.Context, *Message) error { return errors.New("fail") })
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
