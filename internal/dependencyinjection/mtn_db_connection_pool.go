package dependencyinjection

import (
	"context"
	"fmt"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const MtnDBConnectionPoolInstanceName = "mtn_db_connection_pool_instance"

// NewMtnDBConnectionPool creates a new multi-tenant db connection pool
// instance, or retrieves an instance that was already created before. The
// multi-tenant pool routes every query to the schema of the tenant bound to
// the request context, provisioning the schema on first use.
func NewMtnDBConnectionPool(ctx context.Context, opts DBConnectionPoolOptions) (db.DBConnectionPool, error) {
	instanceName := MtnDBConnectionPoolInstanceName
	if instance, ok := GetInstance(instanceName); ok {
		if dbConnectionPoolInstance, ok2 := instance.(db.DBConnectionPool); ok2 {
			return dbConnectionPoolInstance, nil
		}
		return nil, fmt.Errorf("trying to cast multi-tenant DBConnectionPool for dependency injection")
	}

	adminDBConnectionPool, err := NewAdminDBConnectionPool(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("opening admin DB connection pool from NewMtnDBConnectionPool: %w", err)
	}

	log.Ctx(ctx).Info("⚙️ Setting up Multi-tenant DBConnectionPool")
	tenantManager := tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))
	provisioningManager := provisioning.NewManager(provisioning.WithDatabase(adminDBConnectionPool))
	dataSourceRouter := tenant.NewMultiTenantDataSourceRouter(tenantManager, provisioningManager)
	mtnDBConnectionPool, err := db.NewConnectionPoolWithRouter(dataSourceRouter)
	if err != nil {
		return nil, fmt.Errorf("opening multi-tenant DB connection pool: %w", err)
	}

	SetInstance(instanceName, mtnDBConnectionPool)
	return mtnDBConnectionPool, nil
}
