package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const (
	PendingProvisioningJobName            = "tenant_pending_provisioning_job"
	PendingProvisioningJobIntervalSeconds = 30
)

// PendingProvisioningJob is the safety net for lost or delayed schema-created
// events: it sweeps ACTIVE tenants whose schema was never stamped as
// provisioned and converges them. EnsureSchemaReady is idempotent, so racing
// with the event listener is harmless.
type PendingProvisioningJob struct {
	tenantManager tenant.ManagerInterface
	schemaEnsurer tenant.SchemaEnsurer
}

var _ Job = (*PendingProvisioningJob)(nil)

func NewPendingProvisioningJob(tenantManager tenant.ManagerInterface, schemaEnsurer tenant.SchemaEnsurer) *PendingProvisioningJob {
	return &PendingProvisioningJob{
		tenantManager: tenantManager,
		schemaEnsurer: schemaEnsurer,
	}
}

func (j PendingProvisioningJob) GetInterval() time.Duration {
	return PendingProvisioningJobIntervalSeconds * time.Second
}

func (j PendingProvisioningJob) GetName() string {
	return PendingProvisioningJobName
}

func (j PendingProvisioningJob) IsJobMultiTenant() bool {
	return false
}

func (j PendingProvisioningJob) Execute(ctx context.Context) error {
	tenants, err := j.tenantManager.GetTenantsPendingProvisioning(ctx)
	if err != nil {
		return fmt.Errorf("getting tenants pending provisioning: %w", err)
	}
	if len(tenants) == 0 {
		return nil
	}

	failedCount := 0
	for _, t := range tenants {
		if provErr := j.provisionTenant(ctx, t); provErr != nil {
			log.Ctx(ctx).Errorf("[%s] %v", j.GetName(), provErr)
			failedCount++
		}
	}

	if failedCount > 0 {
		return fmt.Errorf("provisioning schemas for %d out of %d pending tenants failed", failedCount, len(tenants))
	}

	log.Ctx(ctx).Infof("[%s] provisioned schemas for %d pending tenants", j.GetName(), len(tenants))
	return nil
}

func (j PendingProvisioningJob) provisionTenant(ctx context.Context, t tenant.Tenant) error {
	if err := j.schemaEnsurer.EnsureSchemaReady(ctx, t.SchemaName); err != nil {
		return fmt.Errorf("ensuring schema %s is ready for tenant %s: %w", t.SchemaName, t.ID, err)
	}
	if _, err := j.tenantManager.SetSchemaProvisioned(ctx, t.ID); err != nil {
		return fmt.Errorf("marking tenant %s schema as provisioned: %w", t.ID, err)
	}
	return nil
}
