package events

import (
	"context"
	"fmt"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// Topic Names
const (
	// TenantLifecycleTopic carries one event per tenant status transition.
	TenantLifecycleTopic = "tenant.lifecycle"
	// TenantSchemaCreatedTopic tells the data-plane services that a tenant
	// schema must exist before they route traffic to it.
	TenantSchemaCreatedTopic = "tenant.schema.created"
)

// Type Names
const (
	TenantCreatedType       = "tenant-created"
	TenantActivatedType     = "tenant-activated"
	TenantSuspendedType     = "tenant-suspended"
	TenantDeactivatedType   = "tenant-deactivated"
	TenantReactivatedType   = "tenant-reactivated"
	TenantSchemaCreatedType = "tenant-schema-created"
)

type Producer interface {
	WriteMessages(ctx context.Context, messages ...Message) error
	Ping(ctx context.Context) error
	BrokerType() EventBrokerType
	Close(ctx context.Context)
}

type Consumer interface {
	ReadMessage(ctx context.Context) (*Message, error)
	RegisterEventHandler(ctx context.Context, eventHandlers ...EventHandler) error
	Topic() string
	Handlers() []EventHandler
	BrokerType() EventBrokerType
	Close() error
}

// ProduceEvents publishes the messages through the producer, tolerating a nil
// producer so callers don't need to branch on broker-less deployments.
func ProduceEvents(ctx context.Context, producer Producer, messages ...*Message) error {
	if producer == nil {
		log.Ctx(ctx).Errorf("event producer is nil, could not publish messages %+v", messages)
		return nil
	}

	if len(messages) == 0 {
		return nil
	}

	msgs := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		msgs = append(msgs, *msg)
	}

	if err := producer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing messages %+v on event producer: %w", msgs, err)
	}

	return nil
}
