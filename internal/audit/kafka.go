package audit

import (
	"encoding/json"
	"fmt"

	"dossard/internal/platform/kafka/producer"
)

// KafkaSink publishes audit events to a Kafka topic, keyed by relation
// identifier so one athlete's events land on one partition in order.
type KafkaSink struct {
	producer producer.MessageProducer
	topic    string
}

var _ Sink = (*KafkaSink)(nil)

func NewKafkaSink(p producer.MessageProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.ProduceAsync(&producer.Message{
		Topic: s.topic,
		Key:   []byte(event.RelationID),
		Value: payload,
		Headers: map[string]string{
			"action": event.Action,
		},
	})
}
