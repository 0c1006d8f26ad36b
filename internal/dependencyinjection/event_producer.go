package dependencyinjection

import (
	"context"
	"fmt"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const EventProducerInstanceName = "event_producer_instance"

// NewEventProducer creates a new event producer instance, or retrieves an
// instance that was already created before. Broker-less deployments get the
// NoopProducer, which logs and discards every message.
func NewEventProducer(ctx context.Context, brokerType events.EventBrokerType, kafkaConfig events.KafkaConfig) (events.Producer, error) {
	instanceName := EventProducerInstanceName
	if instance, ok := GetInstance(instanceName); ok {
		if producerInstance, ok2 := instance.(events.Producer); ok2 {
			return producerInstance, nil
		}
		return nil, fmt.Errorf("trying to cast an event producer instance")
	}

	var producer events.Producer
	switch brokerType {
	case events.KafkaEventBrokerType:
		log.Ctx(ctx).Info("⚙️ Setting up Kafka Event Producer")
		kafkaProducer, err := events.NewKafkaProducer(kafkaConfig)
		if err != nil {
			return nil, fmt.Errorf("creating a Kafka producer: %w", err)
		}
		producer = kafkaProducer
	case events.NoneEventBrokerType:
		log.Ctx(ctx).Warn("Event broker type is NONE. Events will be discarded.")
		producer = events.NoopProducer{}
	default:
		return nil, fmt.Errorf("invalid event broker type %q", brokerType)
	}

	SetInstance(instanceName, producer)
	return producer, nil
}
