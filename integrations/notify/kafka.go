package notify

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

const kindHeader = "kind"

// KafkaSink publishes notification envelopes to a kafka topic keyed by entity.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink connects a synchronous producer, retrying while the brokers come up.
func NewKafkaSink(brokers []string, topic string, attempts int, backoff time.Duration) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	var (
		producer sarama.SyncProducer
		err      error
	)
	for i := 1; i <= attempts; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			return NewKafkaSinkWithProducer(producer, topic), nil
		}
		time.Sleep(backoff)
	}
	return nil, errors.Wrapf(err, "could not start kafka producer after %d attempts", attempts)
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(_ context.Context, kind string, key string, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic:   s.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{{Key: []byte(kindHeader), Value: []byte(kind)}},
	}
	_, _, err := s.producer.SendMessage(msg)
	return errors.Wrapf(err, "could not send %s notification", kind)
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
