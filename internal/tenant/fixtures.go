package tenant

import (
	"context"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

// CreateTenantFixture inserts a tenant row directly, bypassing the manager
// and its outbox writes.
func CreateTenantFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, tenantID string, status TenantStatus) *Tenant {
	t.Helper()

	const q = `
		INSERT INTO admin.tenants
			(id, name, schema_name, status, event_version)
		VALUES
			($1, $2, $3, $4, 1)
		RETURNING *
	`
	var tnt Tenant
	err := sqlExec.GetContext(ctx, &tnt, q, tenantID, fmt.Sprintf("Tenant %s", tenantID), SchemaNameForTenant(tenantID), status)
	require.NoError(t, err)

	return &tnt
}

// DeleteAllTenantsFixture removes all tenant rows, their outbox events and
// any tenant schemas left behind by previous tests.
func DeleteAllTenantsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter) {
	t.Helper()

	_, err := sqlExec.ExecContext(ctx, "DELETE FROM admin.tenant_lifecycle_outbox")
	require.NoError(t, err)
	_, err = sqlExec.ExecContext(ctx, "DELETE FROM admin.tenants")
	require.NoError(t, err)

	schemas := []string{}
	err = sqlExec.SelectContext(ctx, &schemas, "SELECT schema_name FROM information_schema.schemata WHERE schema_name LIKE 'tenant_%'")
	require.NoError(t, err)

	for _, schema := range schemas {
		_, err = sqlExec.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", pq.QuoteIdentifier(schema)))
		require.NoError(t, err)
	}
}

// CheckSchemaExistsFixture reports whether schemaName exists in the database.
func CheckSchemaExistsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, schemaName string) bool {
	t.Helper()

	const q = "SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)"
	var exists bool
	err := sqlExec.GetContext(ctx, &exists, q, schemaName)
	require.NoError(t, err)

	return exists
}

// AssertSchemaTablesFixture asserts that schemaName contains exactly the
// expected tables.
func AssertSchemaTablesFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, schemaName string, expectedTables []string) {
	t.Helper()

	const q = "SELECT table_name FROM information_schema.tables WHERE table_schema = $1"
	tableNames := []string{}
	err := sqlExec.SelectContext(ctx, &tableNames, q, schemaName)
	require.NoError(t, err)

	require.ElementsMatch(t, expectedTables, tableNames)
}

// GetOutboxEventsForTenantFixture returns the tenant's outbox rows on the
// given topic, in event_version order.
func GetOutboxEventsForTenantFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, tenantID, topic string) []OutboxEvent {
	t.Helper()

	const q = `
		SELECT * FROM admin.tenant_lifecycle_outbox
		WHERE tenant_id = $1 AND topic = $2
		ORDER BY event_version ASC
	`
	outboxEvents := []OutboxEvent{}
	err := sqlExec.SelectContext(ctx, &outboxEvents, q, tenantID, topic)
	require.NoError(t, err)

	return outboxEvents
}
