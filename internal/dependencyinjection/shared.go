package dependencyinjection

import (
	"context"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
)

type DBConnectionPoolOptions struct {
	DatabaseURL    string
	MonitorService monitor.MonitorServiceInterface
}

func openDBConnectionPool(ctx context.Context, dsn string, monitorService monitor.MonitorServiceInterface) (db.DBConnectionPool, error) {
	if monitorService == nil {
		return db.OpenDBConnectionPool(dsn)
	}
	return db.OpenDBConnectionPoolWithMetrics(ctx, dsn, monitorService)
}
