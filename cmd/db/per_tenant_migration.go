package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// executeMigrationsPerTenant executes the migrations on the schema of all tenants or a specific tenant, according
// with the direction and count.
func executeMigrationsPerTenant(
	ctx context.Context,
	adminDatabaseURL string,
	opts utils.TenantRoutingOptions,
	dir migrate.MigrationDirection,
	count int,
	migrationRouter migrations.MigrationRouter,
) error {
	if err := opts.ValidateFlags(); err != nil {
		log.Ctx(ctx).Fatal(err.Error())
	}

	tenantIDToDSNMap, err := getTenantIDToDSNMapping(ctx, adminDatabaseURL)
	if err != nil {
		return fmt.Errorf("getting tenants schemas: %w", err)
	}

	if opts.TenantID != "" {
		if dsn, ok := tenantIDToDSNMap[opts.TenantID]; ok {
			tenantIDToDSNMap = map[string]string{opts.TenantID: dsn}
		} else {
			return fmt.Errorf("tenant ID %s does not exist", opts.TenantID)
		}
	}

	for tenantID, dsn := range tenantIDToDSNMap {
		log.Ctx(ctx).Infof("Applying migrations on tenant ID %s", tenantID)
		if err = ExecuteMigrations(ctx, dsn, dir, count, migrationRouter); err != nil {
			return fmt.Errorf("migrating tenant %s database %s: %w", tenantID, migrationDirectionStr(dir), err)
		}
	}

	return nil
}

// getTenantIDToDSNMapping returns a map of tenant IDs to the DSN of their schema.
func getTenantIDToDSNMapping(ctx context.Context, adminDatabaseURL string) (map[string]string, error) {
	adminDBConnectionPool, err := db.OpenDBConnectionPool(adminDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening the admin database connection pool: %w", err)
	}
	defer adminDBConnectionPool.Close()

	m := tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))
	tenants, err := m.GetAllTenants(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("getting all tenants: %w", err)
	}

	dsnMap := make(map[string]string, len(tenants))
	for _, tnt := range tenants {
		dsn, err := m.GetDSNForTenant(ctx, tnt.ID)
		if err != nil {
			return nil, fmt.Errorf("getting DSN for tenant %s: %w", tnt.ID, err)
		}
		dsnMap[tnt.ID] = dsn
	}

	return dsnMap, nil
}
