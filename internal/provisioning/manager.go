package provisioning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

var ErrInvalidSchemaName = errors.New("invalid schema name")

// schemaNameRegex rejects anything that could escape an identifier before it
// reaches DDL. Schema names are derived from validated tenant ids, so a miss
// here means a bug upstream, not bad user input.
var schemaNameRegex = regexp.MustCompile(`^[a-z0-9_]+$`)

const (
	memoCacheSize = 1024
	memoCacheTTL  = 10 * time.Minute
)

// Manager creates tenant schemas on demand and keeps them migrated. It is
// safe for concurrent use across goroutines and across instances: the
// memo cache makes the hot path allocation-free and the Postgres advisory
// lock serializes instances provisioning the same schema.
type Manager struct {
	db   db.DBConnectionPool
	memo *expirable.LRU[string, struct{}]
}

type Option func(m *Manager)

func WithDatabase(dbConnectionPool db.DBConnectionPool) Option {
	return func(m *Manager) {
		m.db = dbConnectionPool
	}
}

func NewManager(opts ...Option) *Manager {
	m := Manager{
		memo: expirable.NewLRU[string, struct{}](memoCacheSize, nil, memoCacheTTL),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return &m
}

// EnsureSchemaReady guarantees schemaName exists with all tenant migrations
// applied. Fast path: a short-lived memo, then a bookkeeping lookup. Slow
// path: an advisory lock keyed on the schema name, a re-check, CREATE SCHEMA
// IF NOT EXISTS and the tenant migration set. A schema provisioned by an
// older release falls through here too: the bookkeeping lookup sees the gap
// and the migration run applies only what is missing.
func (m *Manager) EnsureSchemaReady(ctx context.Context, schemaName string) error {
	if !schemaNameRegex.MatchString(schemaName) {
		return fmt.Errorf("%w: %q", ErrInvalidSchemaName, schemaName)
	}

	if _, ok := m.memo.Get(schemaName); ok {
		return nil
	}

	upToDate, err := m.schemaUpToDate(ctx, schemaName)
	if err != nil {
		return err
	}
	if !upToDate {
		if err = m.provisionSchema(ctx, schemaName); err != nil {
			return fmt.Errorf("provisioning schema %s: %w", schemaName, err)
		}
	}

	m.memo.Add(schemaName, struct{}{})
	return nil
}

// schemaUpToDate reports whether schemaName exists and its bookkeeping table
// records every embedded tenant migration. to_regclass returns NULL when the
// schema or the table is missing, which covers half-provisioned schemas too.
func (m *Manager) schemaUpToDate(ctx context.Context, schemaName string) (bool, error) {
	source := migrate.HttpFileSystemMigrationSource{FileSystem: migrations.TenantMigrationRouter.FS}
	shipped, err := source.FindMigrations()
	if err != nil {
		return false, fmt.Errorf("listing embedded tenant migrations: %w", err)
	}

	var migrationTable sql.NullString
	if err = m.db.GetContext(ctx, &migrationTable, "SELECT to_regclass($1)", schemaName+"."+migrations.TenantMigrationRouter.TableName); err != nil {
		return false, fmt.Errorf("checking migration table of schema %s: %w", schemaName, err)
	}
	if !migrationTable.Valid {
		return false, nil
	}

	var applied int
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", pq.QuoteIdentifier(schemaName), pq.QuoteIdentifier(migrations.TenantMigrationRouter.TableName))
	if err = m.db.GetContext(ctx, &applied, q); err != nil {
		return false, fmt.Errorf("counting applied migrations of schema %s: %w", schemaName, err)
	}
	return applied >= len(shipped), nil
}

// provisionSchema runs the critical section. The advisory lock is session
// scoped, so the whole section holds a single dedicated connection: schemas
// are only created and migrated under the lock and the lock is only released
// after the migrations finish, which is what makes the post-lock bookkeeping
// check a reliable "someone else already did it" signal.
func (m *Manager) provisionSchema(ctx context.Context, schemaName string) error {
	sqlxDB, err := m.db.SqlxDB(ctx)
	if err != nil {
		return fmt.Errorf("getting sqlx.DB: %w", err)
	}

	conn, err := sqlxDB.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquiring a dedicated connection: %w", err)
	}
	defer conn.Close()

	lockKey := advisoryLockKey(schemaName)
	if _, err = conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		return fmt.Errorf("acquiring advisory lock %d: %w", lockKey, err)
	}
	defer func() {
		if _, unlockErr := conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockKey); unlockErr != nil {
			log.Ctx(ctx).Errorf("releasing advisory lock %d for schema %s: %v", lockKey, schemaName, unlockErr)
		}
	}()

	// Another instance may have finished while we waited on the lock.
	upToDate, err := m.schemaUpToDate(ctx, schemaName)
	if err != nil {
		return err
	}
	if upToDate {
		return nil
	}

	log.Ctx(ctx).Infof("Provisioning schema %s...", schemaName)
	if _, err = conn.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schemaName))); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	appliedCount, err := m.runTenantMigrations(ctx, schemaName)
	if err != nil {
		return fmt.Errorf("running tenant migrations: %w", err)
	}
	log.Ctx(ctx).Infof("Applied %d tenant migrations to schema %s", appliedCount, schemaName)

	return nil
}

func (m *Manager) runTenantMigrations(ctx context.Context, schemaName string) (int, error) {
	dsn, err := m.db.DSN(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting database DSN: %w", err)
	}

	tenantDSN, err := tenant.GetDSNForTenantSchema(dsn, schemaName)
	if err != nil {
		return 0, err
	}

	return db.Migrate(tenantDSN, migrate.Up, 0, migrations.TenantMigrationRouter)
}

func advisoryLockKey(schemaName string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(schemaName))
	return int64(h.Sum64())
}
