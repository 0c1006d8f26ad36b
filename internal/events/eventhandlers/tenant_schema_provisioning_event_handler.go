package eventhandlers

import (
	"context"
	"fmt"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events/schemas"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type TenantSchemaProvisioningEventHandlerOptions struct {
	AdminDBConnectionPool db.DBConnectionPool
}

// TenantSchemaProvisioningEventHandler consumes tenant-schema-created events
// and materializes the tenant schema. The event carries an idempotency key
// and EnsureSchemaReady is idempotent itself, so redeliveries are harmless.
type TenantSchemaProvisioningEventHandler struct {
	tenantManager     tenant.ManagerInterface
	schemaProvisioner tenant.SchemaEnsurer
}

var _ events.EventHandler = new(TenantSchemaProvisioningEventHandler)

func NewTenantSchemaProvisioningEventHandler(options TenantSchemaProvisioningEventHandlerOptions) *TenantSchemaProvisioningEventHandler {
	return &TenantSchemaProvisioningEventHandler{
		tenantManager:     tenant.NewManager(tenant.WithDatabase(options.AdminDBConnectionPool)),
		schemaProvisioner: provisioning.NewManager(provisioning.WithDatabase(options.AdminDBConnectionPool)),
	}
}

func (h *TenantSchemaProvisioningEventHandler) Name() string {
	return "TenantSchemaProvisioningEventHandler"
}

func (h *TenantSchemaProvisioningEventHandler) CanHandleMessage(ctx context.Context, message *events.Message) bool {
	return message.Topic == events.TenantSchemaCreatedTopic
}

func (h *TenantSchemaProvisioningEventHandler) Handle(ctx context.Context, message *events.Message) error {
	payload, err := utils.ConvertType[any, schemas.EventTenantSchemaCreatedData](message.Data)
	if err != nil {
		return fmt.Errorf("[%s] could not convert message data to %T: %w", h.Name(), schemas.EventTenantSchemaCreatedData{}, err)
	}

	if err = h.schemaProvisioner.EnsureSchemaReady(ctx, payload.SchemaName); err != nil {
		return fmt.Errorf("[%s] ensuring schema %s is ready: %w", h.Name(), payload.SchemaName, err)
	}

	if _, err = h.tenantManager.SetSchemaProvisioned(ctx, payload.TenantID); err != nil {
		return fmt.Errorf("[%s] marking tenant %s schema as provisioned: %w", h.Name(), payload.TenantID, err)
	}

	log.Ctx(ctx).Infof("[%s] schema %s for tenant %s is ready", h.Name(), payload.SchemaName, payload.TenantID)
	return nil
}
