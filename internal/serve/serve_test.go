package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/dbtest"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/httpserver"
)

type mockHTTPServer struct {
	mock.Mock
}

func (m *mockHTTPServer) Run(conf httpserver.Config) {
	m.Called(conf)
}

func Test_Serve(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()

	mMonitorService := &monitor.MockMonitorService{}
	mMonitorService.On("RegisterFunctionMetric", mock.Anything, mock.Anything).Return(nil)

	mockCrashTrackerClient := &crashtracker.MockCrashTrackerClient{}

	opts := ServeOptions{
		CrashTrackerClient: mockCrashTrackerClient,
		DatabaseDSN:        dbt.DSN,
		Environment:        "test",
		GitCommit:          "1234567890abcdef",
		MonitorService:     mMonitorService,
		Port:               8000,
		Version:            "x.y.z",
	}

	// Mock httpserver.Run
	mHTTPServer := mockHTTPServer{}
	mHTTPServer.On("Run", mock.AnythingOfType("httpserver.Config")).Run(func(args mock.Arguments) {
		conf, ok := args.Get(0).(httpserver.Config)
		require.True(t, ok, "should be of type httpserver.Config")
		assert.Equal(t, ":8000", conf.ListenAddr)
		assert.Equal(t, time.Minute*3, conf.TCPKeepAlive)
		assert.Equal(t, time.Second*50, conf.ShutdownGracePeriod)
		assert.Equal(t, time.Second*5, conf.ReadTimeout)
		assert.Equal(t, time.Second*35, conf.WriteTimeout)
		assert.Equal(t, time.Minute*2, conf.IdleTimeout)
		conf.OnStopping()
	}).Once()
	mockCrashTrackerClient.On("FlushEvents", 2*time.Second).Return(false).Once()
	mockCrashTrackerClient.On("Recover").Once()

	// test and assert
	err := Serve(opts, &mHTTPServer)
	require.NoError(t, err)
	mHTTPServer.AssertExpectations(t)
	mockCrashTrackerClient.AssertExpectations(t)
}

func Test_handleHTTP_Health(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()
	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	mMonitorService := &monitor.MockMonitorService{}
	mLabels := monitor.HttpRequestLabels{
		Status: "200",
		Route:  "/health",
		Method: "GET",
	}
	mMonitorService.On("MonitorHttpRequestDuration", mock.AnythingOfType("time.Duration"), mLabels).Return(nil).Once()

	handlerMux := handleHTTP(ServeOptions{
		Environment:           "test",
		GitCommit:             "1234567890abcdef",
		MonitorService:        mMonitorService,
		Version:               "x.y.z",
		adminDBConnectionPool: dbConnectionPool,
		tenantManager:         tenant.NewManager(tenant.WithDatabase(dbConnectionPool)),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlerMux.ServeHTTP(w, req)

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	wantBody := `{
		"status": "pass",
		"version": "x.y.z",
		"service_id": "operations",
		"release_id": "1234567890abcdef",
		"services": {
			"database": "pass"
		}
	}`
	assert.JSONEq(t, wantBody, string(body))
	mMonitorService.AssertExpectations(t)
}

// getServeOptionsForTests builds ServeOptions wired to a disposable database,
// the same way SetupDependencies would.
// 🚨 Don't forget to call `defer serveOptions.adminDBConnectionPool.Close()` in your test 🚨.
func getServeOptionsForTests(t *testing.T, databaseDSN string) ServeOptions {
	t.Helper()

	mMonitorService := &monitor.MockMonitorService{}
	mMonitorService.On("MonitorHttpRequestDuration", mock.AnythingOfType("time.Duration"), mock.Anything).Return(nil)

	adminDBConnectionPool, err := db.OpenDBConnectionPool(databaseDSN)
	require.NoError(t, err)

	tenantManager := tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))
	provisioningManager := provisioning.NewManager(provisioning.WithDatabase(adminDBConnectionPool))
	dataSourceRouter := tenant.NewMultiTenantDataSourceRouter(tenantManager, provisioningManager)
	mtnDBConnectionPool, err := db.NewConnectionPoolWithRouter(dataSourceRouter)
	require.NoError(t, err)

	models, err := data.NewModels(mtnDBConnectionPool)
	require.NoError(t, err)

	return ServeOptions{
		Environment:           "test",
		GitCommit:             "1234567890abcdef",
		MonitorService:        mMonitorService,
		Version:               "x.y.z",
		Models:                models,
		adminDBConnectionPool: adminDBConnectionPool,
		mtnDBConnectionPool:   mtnDBConnectionPool,
		tenantManager:         tenantManager,
	}
}

func Test_handleHTTP_tenantHeaderEnforcement(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()

	serveOptions := getServeOptionsForTests(t, dbt.DSN)
	defer serveOptions.adminDBConnectionPool.Close()

	ctx := context.Background()
	tenant.CreateTenantFixture(t, ctx, serveOptions.adminDBConnectionPool, "acme", tenant.ActiveTenantStatus)

	handlerMux := handleHTTP(serveOptions)

	tenantScopedEndpoints := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/warehouses"},
		{http.MethodPost, "/warehouses"},
		{http.MethodGet, "/warehouses/1234"},
		{http.MethodPatch, "/warehouses/1234"},
		{http.MethodGet, "/stock-levels"},
		{http.MethodPost, "/stock-levels"},
		{http.MethodPost, "/stock-levels/import"},
		{http.MethodGet, "/stock-levels/export"},
		{http.MethodGet, "/stock-levels/1234"},
		{http.MethodPatch, "/stock-levels/1234"},
		{http.MethodGet, "/movements"},
		{http.MethodPost, "/movements"},
		{http.MethodGet, "/movements/1234"},
	}

	// Expect 400 when the tenant header is missing:
	for _, endpoint := range tenantScopedEndpoints {
		t.Run(fmt.Sprintf("expect 400 for %s %s", endpoint.method, endpoint.path), func(t *testing.T) {
			req := httptest.NewRequest(endpoint.method, endpoint.path, nil)
			w := httptest.NewRecorder()
			handlerMux.ServeHTTP(w, req)

			resp := w.Result()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, `{"error": "Tenant ID header is required", "error_code": "400_1"}`, string(body))
		})
	}

	t.Run("expect 400 when the tenant id does not match the identifier grammar", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/warehouses", nil)
		req.Header.Set(middleware.TenantHeaderKey, "acme corp!")
		w := httptest.NewRecorder()
		handlerMux.ServeHTTP(w, req)

		resp := w.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error": "Invalid tenant identifier", "error_code": "400_1"}`, string(body))
	})

	t.Run("expect 400 when the tenant does not exist", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/warehouses", nil)
		req.Header.Set(middleware.TenantHeaderKey, "ghost")
		w := httptest.NewRecorder()
		handlerMux.ServeHTTP(w, req)

		resp := w.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error": "Invalid tenant identifier", "error_code": "400_1"}`, string(body))
	})
}

func Test_handleHTTP_provisionsTenantSchemaOnFirstUse(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()

	serveOptions := getServeOptionsForTests(t, dbt.DSN)
	defer serveOptions.adminDBConnectionPool.Close()
	defer serveOptions.mtnDBConnectionPool.Close() //nolint:errcheck // no tenant pool is open when the test fails early

	ctx := context.Background()
	acme := tenant.CreateTenantFixture(t, ctx, serveOptions.adminDBConnectionPool, "acme", tenant.ActiveTenantStatus)
	require.False(t, tenant.CheckSchemaExistsFixture(t, ctx, serveOptions.adminDBConnectionPool, acme.SchemaName))

	handlerMux := handleHTTP(serveOptions)

	listEndpoints := []string{"/warehouses", "/stock-levels", "/movements"}
	for _, path := range listEndpoints {
		t.Run("🎉 serves an empty list for "+path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set(middleware.TenantHeaderKey, "acme")
			w := httptest.NewRecorder()
			handlerMux.ServeHTTP(w, req)

			resp := w.Result()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.JSONEq(t, `{"pagination": {"pages": 0, "total": 0}, "data": []}`, string(body))
			assert.NotEmpty(t, resp.Header.Get(middleware.CorrelationIDHeaderKey))
		})
	}

	// The first tenant-scoped request must have provisioned the schema.
	require.True(t, tenant.CheckSchemaExistsFixture(t, ctx, serveOptions.adminDBConnectionPool, acme.SchemaName))
	tenant.AssertSchemaTablesFixture(t, ctx, serveOptions.adminDBConnectionPool, acme.SchemaName, []string{
		"warehouses", "stock_items", "inventory_movements", "tenant_migrations",
	})

	t.Run("🎉 creates a warehouse through the full stack", func(t *testing.T) {
		payload := `{"code": "JHB-01", "name": "Johannesburg Hub", "address": "1 Depot Road"}`
		req := httptest.NewRequest(http.MethodPost, "/warehouses", strings.NewReader(payload))
		req.Header.Set(middleware.TenantHeaderKey, "acme")
		req.Header.Set(middleware.UserHeaderKey, "user-123")
		w := httptest.NewRecorder()
		handlerMux.ServeHTTP(w, req)

		resp := w.Result()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, string(body), `"code":"JHB-01"`)
	})
}
