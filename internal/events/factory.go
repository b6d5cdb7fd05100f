package events

import (
	"context"
	"fmt"
)

// Config selects and configures the event sink.
type Config struct {
	Backend      string // none, amqp, kafka
	AMQPURL      string
	AMQPExchange string
	Kafka        KafkaConfig
}

// New returns the publisher for cfg.Backend.
func New(ctx context.Context, cfg Config) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "amqp":
		return NewAMQPPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange)
	case "kafka":
		if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
			return nil, fmt.Errorf("kafka events need brokers and a topic")
		}
		return NewKafkaPublisher(cfg.Kafka), nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", cfg.Backend)
	}
}
