package provisioning

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/dbtest"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
)

func Test_Manager_EnsureSchemaReady_rejectsInvalidSchemaNames(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	for _, schemaName := range []string{"", "Tenant_Acme", "tenant-acme", "tenant.acme", `tenant"acme`} {
		err := m.EnsureSchemaReady(ctx, schemaName)
		assert.ErrorIsf(t, err, ErrInvalidSchemaName, "schema name %q", schemaName)
	}
}

func Test_Manager_EnsureSchemaReady_provisionsTheSchema(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := NewManager(WithDatabase(dbConnectionPool))

	const schemaName = "tenant_acme_schema"
	require.False(t, tenant.CheckSchemaExistsFixture(t, ctx, dbConnectionPool, schemaName))

	err = m.EnsureSchemaReady(ctx, schemaName)
	require.NoError(t, err)

	assert.True(t, tenant.CheckSchemaExistsFixture(t, ctx, dbConnectionPool, schemaName))
	tenant.AssertSchemaTablesFixture(t, ctx, dbConnectionPool, schemaName, []string{
		"tenant_migrations",
		"warehouses",
		"stock_items",
		"inventory_movements",
	})
}

func Test_Manager_EnsureSchemaReady_isIdempotent(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	const schemaName = "tenant_acme_schema"

	m := NewManager(WithDatabase(dbConnectionPool))
	require.NoError(t, m.EnsureSchemaReady(ctx, schemaName))

	// Second call is served from the memo.
	require.NoError(t, m.EnsureSchemaReady(ctx, schemaName))

	// A fresh manager has no memo and goes through the catalog lookup.
	fresh := NewManager(WithDatabase(dbConnectionPool))
	require.NoError(t, fresh.EnsureSchemaReady(ctx, schemaName))
}

func Test_Manager_EnsureSchemaReady_appliesNewlyShippedMigrations(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	const schemaName = "tenant_acme_schema"

	m := NewManager(WithDatabase(dbConnectionPool))
	require.NoError(t, m.EnsureSchemaReady(ctx, schemaName))

	// Roll the schema back to the state of an older release: the newest
	// migration is gone from the schema and from its bookkeeping table.
	_, err = dbConnectionPool.ExecContext(ctx, "DROP TABLE tenant_acme_schema.inventory_movements")
	require.NoError(t, err)
	_, err = dbConnectionPool.ExecContext(ctx, "DELETE FROM tenant_acme_schema.tenant_migrations WHERE id = '2025-10-02.2.add-inventory-movements-table.sql'")
	require.NoError(t, err)

	// A fresh manager has no memo; it must notice the gap and migrate
	// instead of stopping at the schema-exists check.
	fresh := NewManager(WithDatabase(dbConnectionPool))
	require.NoError(t, fresh.EnsureSchemaReady(ctx, schemaName))

	tenant.AssertSchemaTablesFixture(t, ctx, dbConnectionPool, schemaName, []string{
		"tenant_migrations",
		"warehouses",
		"stock_items",
		"inventory_movements",
	})

	var applied int
	err = dbConnectionPool.GetContext(ctx, &applied, "SELECT COUNT(*) FROM tenant_acme_schema.tenant_migrations")
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
}

func Test_Manager_EnsureSchemaReady_concurrentCallers(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	const schemaName = "tenant_acme_schema"

	// Each goroutine gets its own manager so nothing is memoized and every
	// one of them races through the advisory lock.
	const callers = 5
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := NewManager(WithDatabase(dbConnectionPool))
			errs <- m.EnsureSchemaReady(ctx, schemaName)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	tenant.AssertSchemaTablesFixture(t, ctx, dbConnectionPool, schemaName, []string{
		"tenant_migrations",
		"warehouses",
		"stock_items",
		"inventory_movements",
	})
}
