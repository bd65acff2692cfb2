package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"irisload/internal/storage"
)

const DefaultTopic = "irisload.runs"

// Publisher ships a finished run somewhere outside the process.
type Publisher interface {
	Publish(ctx context.Context, item storage.HistoryItem) error
	Close() error
}

// messageWriter is the part of *kafka.Writer a KafkaPublisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per run, keyed by run id.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return &KafkaPublisher{w: w}, nil
}

// Message encodes item the way it is published.
func Message(item storage.HistoryItem) (kafka.Message, error) {
	value, err := json.Marshal(item)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(item.ID),
		Value: value,
		Time:  item.Timestamp,
		Headers: []kafka.Header{
			{Key: "target", Value: []byte(item.TargetURL)},
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, item storage.HistoryItem) error {
	msg, err := Message(item)
	if err != nil {
		return fmt.Errorf("kafka: encode run %s: %w", item.ID, err)
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish run %s: %w", item.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
