package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db/dbtest"
)

func openTestDBConnectionPool(t *testing.T) DBConnectionPool {
	t.Helper()

	dbt := dbtest.Open(t)
	dbConnectionPool, err := OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)

	t.Cleanup(func() {
		dbConnectionPool.Close()
		dbt.Close()
	})

	return dbConnectionPool
}
