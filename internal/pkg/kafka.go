package pkg

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrKafkaConfig = errors.New("kafka brokers and topic required")

// HeaderEventType 消费方按该 header 分发事件
const HeaderEventType = "event_type"

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaProducer 社交事件投递，同一 key 落在同一分区保证顺序
type KafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, ErrKafkaConfig
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Publish 同步写入，失败由 outbox 重试
func (p *KafkaProducer) Publish(ctx context.Context, actorID uint64, eventType string, payload []byte) error {
	return p.writer.WriteMessages(ctx, EventMessage(actorID, eventType, payload))
}

// EventMessage 以 actor id 作为分区 key
func EventMessage(actorID uint64, eventType string, payload []byte) kafka.Message {
	return kafka.Message{
		Key:     []byte(strconv.FormatUint(actorID, 10)),
		Value:   payload,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(eventType)}},
	}
}
