package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const (
	OutboxRelayJobName            = "tenant_outbox_relay_job"
	OutboxRelayJobIntervalSeconds = 5
	OutboxRelayBatchSize          = 100
)

// OutboxRelayJob drains the tenant lifecycle outbox to the event broker. Rows
// are read oldest first and published keyed by tenant id, so each tenant's
// events reach the broker in commit order. Rows are only marked published
// after the broker acknowledges the batch, which makes delivery
// at-least-once; consumers dedupe on (tenant id, event version).
type OutboxRelayJob struct {
	tenantManager tenant.ManagerInterface
	producer      events.Producer
}

var _ Job = (*OutboxRelayJob)(nil)

func NewOutboxRelayJob(tenantManager tenant.ManagerInterface, producer events.Producer) *OutboxRelayJob {
	return &OutboxRelayJob{
		tenantManager: tenantManager,
		producer:      producer,
	}
}

func (j OutboxRelayJob) GetInterval() time.Duration {
	return OutboxRelayJobIntervalSeconds * time.Second
}

func (j OutboxRelayJob) GetName() string {
	return OutboxRelayJobName
}

func (j OutboxRelayJob) IsJobMultiTenant() bool {
	return false
}

func (j OutboxRelayJob) Execute(ctx context.Context) error {
	outboxEvents, err := j.tenantManager.GetPendingOutboxEvents(ctx, OutboxRelayBatchSize)
	if err != nil {
		return fmt.Errorf("getting pending outbox events: %w", err)
	}
	if len(outboxEvents) == 0 {
		return nil
	}

	messages := make([]*events.Message, 0, len(outboxEvents))
	eventIDs := make([]string, 0, len(outboxEvents))
	for _, outboxEvent := range outboxEvents {
		msg, msgErr := events.NewMessage(outboxEvent.Topic, outboxEvent.TenantID, outboxEvent.TenantID, outboxEvent.EventType, outboxEvent.Payload)
		if msgErr != nil {
			return fmt.Errorf("building message for outbox event %s: %w", outboxEvent.ID, msgErr)
		}
		messages = append(messages, msg)
		eventIDs = append(eventIDs, outboxEvent.ID)
	}

	if err = events.ProduceEvents(ctx, j.producer, messages...); err != nil {
		return fmt.Errorf("publishing %d outbox events: %w", len(messages), err)
	}

	if err = j.tenantManager.MarkOutboxEventsPublished(ctx, eventIDs); err != nil {
		return fmt.Errorf("marking outbox events as published: %w", err)
	}

	log.Ctx(ctx).Infof("[%s] published %d outbox events", j.GetName(), len(messages))
	return nil
}
