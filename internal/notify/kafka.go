package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// KafkaNotifier publishes booking events as JSON, keyed by PNR so every
// event for a booking lands on the same partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducerConfig returns the producer settings flightdesk uses:
// acks from all in-sync replicas, a few retries and a hash partitioner.
func NewKafkaProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 10 * time.Second
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	return cfg
}

// DialKafka connects a SyncProducer to the brokers.
func DialKafka(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no kafka brokers configured", models.ErrValidation)
	}
	producer, err := sarama.NewSyncProducer(brokers, NewKafkaProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: kafka producer: %v", models.ErrExternalService, err)
	}
	log.Printf("notify/kafka: producer connected to %v", brokers)
	return NewKafkaNotifier(producer, topic), nil
}

// NewKafkaNotifier wraps an existing producer.
func NewKafkaNotifier(producer sarama.SyncProducer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

// Notify publishes one event.
func (k *KafkaNotifier) Notify(_ context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify/kafka: marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.Reference),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(ev.Type)},
			{Key: []byte("producer"), Value: []byte("flightdesk")},
		},
		Timestamp: ev.At,
	}
	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: kafka publish: %v", models.ErrExternalService, err)
	}
	log.Printf("notify/kafka: %s %s published to %s [%d@%d]", ev.Type, ev.Reference, k.topic, partition, offset)
	return nil
}

// Close shuts the producer down.
func (k *KafkaNotifier) Close() error {
	if k.producer == nil {
		return nil
	}
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("notify/kafka: close producer: %w", err)
	}
	return nil
}
