// Package producer wraps a single-topic NSQ publisher, used by the agent's
// event bus to announce refresh-pipeline notifications to external
// consumers.
package producer

import (
	"fmt"

	"github.com/nsqio/go-nsq"
)

// MessageProducerConfig defines NSQ publish configuration, usable for Viper.
type MessageProducerConfig struct {
	Host  string `mapstructure:"host"`
	Topic string `mapstructure:"topic"`
}

// MessageProducer publishes every message onto one configured topic.
type MessageProducer struct {
	producer *nsq.Producer
	topic    string
}

// Publish sends body to the configured topic.
func (p *MessageProducer) Publish(body []byte) error {
	return p.producer.Publish(p.topic, body)
}

// Stop releases the underlying NSQ connection.
func (p *MessageProducer) Stop() {
	p.producer.Stop()
}

// New connects to the nsqd at config.Host and verifies it is reachable
// before handing the producer back, so a misconfigured broker fails at
// startup rather than on the first publish.
func New(config *MessageProducerConfig) (*MessageProducer, error) {
	producer, err := nsq.NewProducer(config.Host, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq producer for %s: %w", config.Host, err)
	}
	if err := producer.Ping(); err != nil {
		return nil, fmt.Errorf("nsqd at %s unreachable: %w", config.Host, err)
	}
	return &MessageProducer{producer: producer, topic: config.Topic}, nil
}
