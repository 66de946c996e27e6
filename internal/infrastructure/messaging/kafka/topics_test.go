package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/testutil"
	pkgerrors "github.com/turtacn/patent-normalizer/pkg/errors"
)

type mockKafkaConn struct {
	createFunc func(topics ...kafka.TopicConfig) error
	readFunc   func(topics ...string) ([]kafka.Partition, error)
}

func (m *mockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.createFunc != nil {
		return m.createFunc(topics...)
	}
	return nil
}


func (m *mockKafkaConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readFunc != nil {
		return m.readFunc(topics...)
	}
	return nil, nil
}

func (m *mockKafkaConn) Close() error { return nil }

func newTestTopicManager(conn ConnInterface) *TopicManager {
	return &TopicManager{conn: conn, logger: testutil.NewMockLogger()}
}

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics(newTestKafkaConfig())
	require.Len(t, topics, 3)
	assert.Equal(t, "raw", topics[0].Name)
	assert.Equal(t, "compact", topics[1].CleanupPolicy)
	assert.Equal(t, "dlq", topics[2].Name)
}

func TestCreateTopic_ConfigEntries(t *testing.T) {
	conn := &mockKafkaConn{createFunc: func(topics ...kafka.TopicConfig) error {
		require.Len(t, topics, 1)
		assert.Equal(t, "normalized", topics[0].Topic)
		assert.Contains(t, topics[0].ConfigEntries, kafka.ConfigEntry{ConfigName: "cleanup.policy", ConfigValue: "compact"})
		return nil
	}}
	m := newTestTopicManager(conn)
	require.NoError(t, m.CreateTopic(context.Background(), DefaultTopics(newTestKafkaConfig())[1]))
}

func TestCreateTopic_Validation(t *testing.T) {
	m := newTestTopicManager(&mockKafkaConn{})
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "a"}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "a", NumPartitions: 1}))
}

func TestCreateTopic_AlreadyExists(t *testing.T) {
	conn := &mockKafkaConn{
		createFunc: func(...kafka.TopicConfig) error { return errors.New("topic already exists") },
		readFunc: func(topics ...string) ([]kafka.Partition, error) {
			return []kafka.Partition{{Topic: topics[0]}}, nil
		},
	}
	m := newTestTopicManager(conn)
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "a", NumPartitions: 1, ReplicationFactor: 1}))
}

func TestListTopics(t *testing.T) {
	conn := &mockKafkaConn{readFunc: func(...string) ([]kafka.Partition, error) {
		return []kafka.Partition{{Topic: "a", ID: 0}, {Topic: "a", ID: 1}, {Topic: "b"}}, nil
	}}
	topics, err := newTestTopicManager(conn).ListTopics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, topics)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEventEnvelope(EventRecordRaw, "run-7", RawRecordPayload{File: "ipg.zip", Record: 3, Text: []byte("<x/>")})
	require.NoError(t, err)
	pm, err := env.ToMessage("raw", []byte("ipg.zip"))
	require.NoError(t, err)

	rec, err := DecodeRawRecord(&Message{Key: pm.Key, Value: pm.Value, Headers: pm.Headers})
	require.NoError(t, err)
	assert.Equal(t, "ipg.zip", rec.File)
	assert.Equal(t, 3, rec.Record)
	assert.Equal(t, "<x/>", string(rec.Text))
}

func TestDecodeRawRecord_Bare(t *testing.T) {
	rec, err := DecodeRawRecord(&Message{Key: []byte("f.xml"), Offset: 9, Value: []byte("<x/>")})
	require.NoError(t, err)
	assert.Equal(t, RawRecordPayload{File: "f.xml", Record: 9, Text: []byte("<x/>")}, rec)
}

func TestDecodeRawRecord_Errors(t *testing.T) {
	_, err := DecodeRawRecord(&Message{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	env, _ := NewEventEnvelope(EventDocumentNormalized, "", map[string]string{})
	pm, _ := env.ToMessage("t", nil)
	_, err = DecodeRawRecord(&Message{Value: pm.Value, Headers: pm.Headers})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))

	_, err = DecodeRawRecord(&Message{Value: []byte("{"), Headers: map[string]string{HeaderEventType: EventRecordRaw}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

//Personal.AI order the ending
