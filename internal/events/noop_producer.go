package events

import (
	"context"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// NoopProducer is a producer used to log messages instead of sending them to a real broker.
type NoopProducer struct{}

var _ Producer = NoopProducer{}

func (p NoopProducer) WriteMessages(ctx context.Context, messages ...Message) error {
	log.Ctx(ctx).Debugf("NoopProducer: discarding messages %+v", messages)
	return nil
}

func (p NoopProducer) Ping(ctx context.Context) error {
	return nil
}

func (p NoopProducer) BrokerType() EventBrokerType {
	return NoneEventBrokerType
}

func (p NoopProducer) Close(ctx context.Context) {}
