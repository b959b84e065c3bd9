package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaProducerRequiresConfig(t *testing.T) {
	_, err := NewKafkaProducer(KafkaConfig{Topic: "social"})
	assert.ErrorIs(t, err, ErrKafkaConfig)
	_, err = NewKafkaProducer(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	assert.ErrorIs(t, err, ErrKafkaConfig)

	p, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, Topic: "social"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestEventMessage(t *testing.T) {
	msg := EventMessage(42, "follow", []byte(`{"a":1}`))
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, `{"a":1}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "follow", string(msg.Headers[0].Value))
}
