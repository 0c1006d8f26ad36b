package dependencyinjection

import (
	"context"
	"fmt"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const AdminDBConnectionPoolInstanceName = "admin_db_connection_pool_instance"

// NewAdminDBConnectionPool creates a new admin db connection pool instance, or
// retrieves an instance that was already created before. The admin pool talks
// to the shared catalog schema that holds the tenant registry and the outbox.
func NewAdminDBConnectionPool(ctx context.Context, opts DBConnectionPoolOptions) (db.DBConnectionPool, error) {
	instanceName := AdminDBConnectionPoolInstanceName
	if instance, ok := GetInstance(instanceName); ok {
		if dbConnectionPoolInstance, ok2 := instance.(db.DBConnectionPool); ok2 {
			return dbConnectionPoolInstance, nil
		}
		return nil, fmt.Errorf("trying to cast admin DBConnectionPool for dependency injection")
	}

	log.Ctx(ctx).Info("⚙️ Setting up Admin DBConnectionPool")
	dbConnectionPool, err := openDBConnectionPool(ctx, opts.DatabaseURL, opts.MonitorService)
	if err != nil {
		return nil, fmt.Errorf("opening admin DB connection pool: %w", err)
	}

	SetInstance(instanceName, dbConnectionPool)
	return dbConnectionPool, nil
}
