package db

import (
	"context"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db/dbtest"
	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
)

func Test_Migrate_upAndDown_admin(t *testing.T) {
	dbt := dbtest.OpenWithoutMigrations(t)
	defer dbt.Close()

	n, err := Migrate(dbt.DSN, migrate.Up, 0, migrations.AdminMigrationRouter)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 3)

	dbConnectionPool, err := OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()
	ctx := context.Background()

	var ids []string
	err = dbConnectionPool.SelectContext(ctx, &ids, "SELECT id FROM admin_migrations ORDER BY id")
	require.NoError(t, err)
	assert.Len(t, ids, n)

	var tenantsTableExists bool
	err = dbConnectionPool.GetContext(ctx, &tenantsTableExists,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'admin' AND table_name = 'tenants')")
	require.NoError(t, err)
	assert.True(t, tenantsTableExists)

	nDown, err := Migrate(dbt.DSN, migrate.Down, 0, migrations.AdminMigrationRouter)
	require.NoError(t, err)
	assert.Equal(t, n, nDown)

	err = dbConnectionPool.GetContext(ctx, &tenantsTableExists,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'admin' AND table_name = 'tenants')")
	require.NoError(t, err)
	assert.False(t, tenantsTableExists)
}

func Test_Migrate_upAndDown_tenant(t *testing.T) {
	dbt := dbtest.OpenWithoutMigrations(t)
	defer dbt.Close()

	n, err := Migrate(dbt.DSN, migrate.Up, 1, migrations.TenantMigrationRouter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dbConnectionPool, err := OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()
	ctx := context.Background()

	var warehousesTableExists bool
	err = dbConnectionPool.GetContext(ctx, &warehousesTableExists,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'warehouses')")
	require.NoError(t, err)
	assert.True(t, warehousesTableExists)

	nDown, err := Migrate(dbt.DSN, migrate.Down, 1, migrations.TenantMigrationRouter)
	require.NoError(t, err)
	assert.Equal(t, 1, nDown)
}
