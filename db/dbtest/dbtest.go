package dbtest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
)

const defaultPostgresURL = "postgres://localhost:5432/?sslmode=disable"

// DB is a disposable Postgres database created for a single test. Close drops it.
type DB struct {
	DSN    string
	dbName string
	t      *testing.T
}

// OpenWithoutMigrations creates a new randomly-named database and returns a handle to it.
func OpenWithoutMigrations(t *testing.T) *DB {
	t.Helper()

	baseDSN := os.Getenv("DATABASE_URL")
	if baseDSN == "" {
		baseDSN = defaultPostgresURL
	}

	u, err := url.Parse(baseDSN)
	require.NoError(t, err)

	conn, err := sqlx.Open("postgres", baseDSN)
	require.NoError(t, err)
	defer conn.Close()

	dbName := randomDBName(t)
	_, err = conn.Exec(fmt.Sprintf(`CREATE DATABASE %q`, dbName))
	require.NoError(t, err)

	u.Path = "/" + dbName
	return &DB{
		DSN:    u.String(),
		dbName: dbName,
		t:      t,
	}
}

// Open returns a *sqlx.DB connected to the test database. The caller is responsible for closing it.
func (db *DB) Open() *sqlx.DB {
	db.t.Helper()

	conn, err := sqlx.Open("postgres", db.DSN)
	require.NoError(db.t, err)
	return conn
}

// Close drops the test database, disconnecting any leftover sessions first.
func (db *DB) Close() {
	db.t.Helper()

	baseDSN := os.Getenv("DATABASE_URL")
	if baseDSN == "" {
		baseDSN = defaultPostgresURL
	}

	conn, err := sqlx.Open("postgres", baseDSN)
	require.NoError(db.t, err)
	defer conn.Close()

	_, err = conn.Exec(fmt.Sprintf(`DROP DATABASE %q WITH (FORCE)`, db.dbName))
	require.NoError(db.t, err)
}

func randomDBName(t *testing.T) string {
	t.Helper()

	raw := make([]byte, 8)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	return "wms_test_" + hex.EncodeToString(raw)
}

func openWithMigrations(t *testing.T, routers ...migrations.MigrationRouter) *DB {
	db := OpenWithoutMigrations(t)

	conn := db.Open()
	defer conn.Close()

	for _, router := range routers {
		ms := migrate.MigrationSet{TableName: router.TableName}
		m := migrate.HttpFileSystemMigrationSource{FileSystem: router.FS}
		_, err := ms.ExecMax(conn.DB, "postgres", m, migrate.Up, 0)
		if err != nil {
			t.Fatal(err)
		}
	}

	return db
}

// Open creates a new test database with both the admin catalog and the tenant table set applied. The tenant tables
// land in the default search path, which is what model tests expect.
func Open(t *testing.T) *DB {
	return openWithMigrations(t,
		migrations.AdminMigrationRouter,
		migrations.TenantMigrationRouter,
	)
}

func OpenWithAdminMigrationsOnly(t *testing.T) *DB {
	return openWithMigrations(t, migrations.AdminMigrationRouter)
}

func OpenWithTenantMigrationsOnly(t *testing.T) *DB {
	return openWithMigrations(t, migrations.TenantMigrationRouter)
}
