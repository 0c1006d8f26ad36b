package db

import (
	"context"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/kumbirai/warehouse-management-system-sub005/db/migrations"
)

// Migrate runs the migrations of the given router against the database pointed at by dbURL. It returns the number of
// migrations applied in the given direction.
func Migrate(dbURL string, dir migrate.MigrationDirection, count int, migrationRouter migrations.MigrationRouter) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(dbURL)
	if err != nil {
		return 0, fmt.Errorf("connecting to the database: %w", err)
	}
	defer dbConnectionPool.Close()

	ms := migrate.MigrationSet{
		TableName: migrationRouter.TableName,
	}

	m := migrate.HttpFileSystemMigrationSource{FileSystem: migrationRouter.FS}
	ctx := context.Background()
	db, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching sql.DB: %w", err)
	}
	return ms.ExecMax(db, dbConnectionPool.DriverName(), m, dir, count)
}
