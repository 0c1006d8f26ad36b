package migrations

import (
	"net/http"

	adminmigrations "github.com/kumbirai/warehouse-management-system-sub005/db/migrations/admin-migrations"
	tenantmigrations "github.com/kumbirai/warehouse-management-system-sub005/db/migrations/tenant-migrations"
)

// MigrationRouter associates a migration file set with the bookkeeping table that tracks it. The admin set runs once
// against the shared catalog, the tenant set runs once per tenant schema.
type MigrationRouter struct {
	TableName string
	FS        http.FileSystem
}

var (
	AdminMigrationRouter  = MigrationRouter{TableName: "admin_migrations", FS: http.FS(adminmigrations.FS)}
	TenantMigrationRouter = MigrationRouter{TableName: "tenant_migrations", FS: http.FS(tenantmigrations.FS)}
)
