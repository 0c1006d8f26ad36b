package tenant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

var ErrNoDataSourcesAvailable = errors.New("no data sources are available")

// SchemaEnsurer guarantees a tenant schema exists and is fully migrated
// before any connection pool starts using it.
type SchemaEnsurer interface {
	EnsureSchemaReady(ctx context.Context, schemaName string) error
}

// MultiTenantDataSourceRouter resolves the tenant in the request context to a
// connection pool pinned to that tenant's schema. Pools are opened lazily on
// first use and cached for the lifetime of the process.
type MultiTenantDataSourceRouter struct {
	dataSources   sync.Map // tenant ID -> db.DBConnectionPool
	mutex         sync.Mutex
	tenantManager ManagerInterface
	schemaEnsurer SchemaEnsurer
}

func NewMultiTenantDataSourceRouter(tenantManager ManagerInterface, schemaEnsurer SchemaEnsurer) *MultiTenantDataSourceRouter {
	return &MultiTenantDataSourceRouter{
		tenantManager: tenantManager,
		schemaEnsurer: schemaEnsurer,
	}
}

func (m *MultiTenantDataSourceRouter) GetDataSource(ctx context.Context) (db.DBConnectionPool, error) {
	currentTenant, err := GetTenantFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting tenant from context: %w", err)
	}
	return m.GetDataSourceForTenant(ctx, *currentTenant)
}

// GetDataSourceForTenant returns the pool for the given tenant, opening it on
// first use. The double-checked lock keeps concurrent first requests for the
// same tenant from opening duplicate pools.
func (m *MultiTenantDataSourceRouter) GetDataSourceForTenant(ctx context.Context, currentTenant Tenant) (db.DBConnectionPool, error) {
	value, exists := m.dataSources.Load(currentTenant.ID)
	if !exists {
		m.mutex.Lock()
		defer m.mutex.Unlock()

		value, exists = m.dataSources.Load(currentTenant.ID)
		if !exists {
			if m.schemaEnsurer != nil {
				if err := m.schemaEnsurer.EnsureSchemaReady(ctx, currentTenant.SchemaName); err != nil {
					return nil, fmt.Errorf("ensuring schema %s is ready: %w", currentTenant.SchemaName, err)
				}
			}

			dsn, err := m.tenantManager.GetDSNForTenant(ctx, currentTenant.ID)
			if err != nil {
				return nil, fmt.Errorf("getting DSN for tenant %s: %w", currentTenant.ID, err)
			}

			pool, err := db.OpenDBConnectionPool(dsn)
			if err != nil {
				return nil, fmt.Errorf("opening connection pool for tenant %s: %w", currentTenant.ID, err)
			}

			m.dataSources.Store(currentTenant.ID, pool)
			return pool, nil
		}
	}

	return value.(db.DBConnectionPool), nil
}

func (m *MultiTenantDataSourceRouter) GetAllDataSources() ([]db.DBConnectionPool, error) {
	var pools []db.DBConnectionPool
	var rangeErr error
	m.dataSources.Range(func(_, value any) bool {
		pool, ok := value.(db.DBConnectionPool)
		if !ok {
			rangeErr = fmt.Errorf("invalid data source type %T", value)
			return false
		}
		pools = append(pools, pool)
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return pools, nil
}

// AnyDataSource returns an arbitrary tenant pool, for liveness checks that do
// not depend on a specific tenant.
func (m *MultiTenantDataSourceRouter) AnyDataSource() (db.DBConnectionPool, error) {
	pools, err := m.GetAllDataSources()
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, ErrNoDataSourcesAvailable
	}
	return pools[0], nil
}

var _ db.DataSourceRouter = (*MultiTenantDataSourceRouter)(nil)

var schemaNameInvalidChars = regexp.MustCompile(`[^a-z0-9_]`)

// SchemaNameForTenant derives the PostgreSQL schema name for a tenant id:
// tenant_<id>_schema, lowercased, with every character outside [a-z0-9_]
// replaced by an underscore.
func SchemaNameForTenant(tenantID string) string {
	sanitized := schemaNameInvalidChars.ReplaceAllString(strings.ToLower(tenantID), "_")
	return fmt.Sprintf("tenant_%s_schema", sanitized)
}

// GetDSNForTenantSchema rewrites dataSourceName so every connection opened
// with it has its search_path pinned to schemaName.
func GetDSNForTenantSchema(dataSourceName, schemaName string) (string, error) {
	u, err := url.Parse(dataSourceName)
	if err != nil {
		return "", fmt.Errorf("parsing database DSN: %w", err)
	}

	q := u.Query()
	q.Set("search_path", schemaName)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
