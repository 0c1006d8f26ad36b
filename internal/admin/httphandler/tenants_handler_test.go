package httphandler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/db/dbtest"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
)

// setupTenantsHandler opens a disposable admin database and returns a handler
// backed by a real manager and provisioner, plus the pool for fixtures.
func setupTenantsHandler(t *testing.T) (TenantsHandler, db.DBConnectionPool) {
	t.Helper()

	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	t.Cleanup(dbt.Close)

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { dbConnectionPool.Close() })

	handler := TenantsHandler{
		Manager:            tenant.NewManager(tenant.WithDatabase(dbConnectionPool)),
		SchemaEnsurer:      provisioning.NewManager(provisioning.WithDatabase(dbConnectionPool)),
		CrashTrackerClient: &crashtracker.MockCrashTrackerClient{},
	}
	return handler, dbConnectionPool
}

func setupTenantsRouter(handler TenantsHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", handler.GetAll)
		r.Post("/", handler.Post)
		r.Get("/{arg}", handler.GetByIDOrName)
		r.Patch("/{id}", handler.Patch)
		r.Delete("/{id}", handler.Delete)
		r.Post("/{id}/activate", handler.Activate)
		r.Post("/{id}/suspend", handler.Suspend)
		r.Post("/{id}/deactivate", handler.Deactivate)
		r.Post("/{id}/reactivate", handler.Reactivate)
		r.Get("/{id}/realm", handler.GetRealm)
	})
	return r
}

func doRequest(t *testing.T, r *chi.Mux, method, url, body string) (int, string) {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(respBody)
}

func Test_TenantsHandler_GetAll(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("🎉 returns an empty list when there are no tenants", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodGet, "/tenants", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", body)
	})

	t.Run("🎉 lists tenants excluding the soft deleted", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)
		ghost := tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "ghost", tenant.InactiveTenantStatus)
		_, err := handler.Manager.SoftDeleteTenantByID(ctx, ghost.ID)
		require.NoError(t, err)

		status, body := doRequest(t, r, http.MethodGet, "/tenants", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"id":"acme"`)
		assert.NotContains(t, body, `"id":"ghost"`)
	})
}

func Test_TenantsHandler_GetByIDOrName(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("returns 404 for an unknown tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodGet, "/tenants/ghost", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error": "Tenant not found."}`, body)
	})

	t.Run("🎉 resolves a tenant by id and by name", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tnt := tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)

		status, body := doRequest(t, r, http.MethodGet, "/tenants/acme", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"id":"acme"`)

		status, body = doRequest(t, r, http.MethodGet, "/tenants/"+tnt.Name, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"id":"acme"`)
	})
}

func Test_TenantsHandler_Post(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("returns 400 for a malformed body", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants", "not json")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error": "The request was invalid in some way."}`, body)
	})

	t.Run("returns 400 with field errors for an invalid payload", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants", `{"id": "bad id!", "contact_email": "not-an-email"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{
			"error": "Request invalid",
			"extras": {
				"id": "tenant id must be 1-50 characters of letters, digits, '_' or '-'",
				"name": "tenant name is required",
				"contact_email": "invalid email address"
			}
		}`, body)
	})

	t.Run("returns 400 for a duplicated tenant id", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)

		status, body := doRequest(t, r, http.MethodPost, "/tenants", `{"id": "acme", "name": "Acme Again"}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error": "A tenant with this id already exists"}`, body)
	})

	t.Run("🎉 registers a tenant in PENDING status and writes the outbox event", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)

		payload := `{
			"id": "acme",
			"name": "Acme Corp",
			"contact_name": "Jess Ops",
			"contact_email": "ops@acme.example.com",
			"configuration": {"default_movement_reason": "cycle-count"},
			"realm_override": "acme-idp"
		}`
		status, body := doRequest(t, r, http.MethodPost, "/tenants", payload)
		assert.Equal(t, http.StatusCreated, status)
		assert.Contains(t, body, `"id":"acme"`)
		assert.Contains(t, body, `"status":"PENDING"`)
		assert.Contains(t, body, `"schema_name":"tenant_acme_schema"`)

		outboxEvents := tenant.GetOutboxEventsForTenantFixture(t, ctx, dbConnectionPool, "acme", events.TenantLifecycleTopic)
		require.Len(t, outboxEvents, 1)
		assert.Equal(t, events.TenantCreatedType, outboxEvents[0].EventType)
		assert.Equal(t, int64(1), outboxEvents[0].EventVersion)
	})
}

func Test_TenantsHandler_Patch(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("returns 400 when no field is provided", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPatch, "/tenants/acme", `{}`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error": "Provide at least one field to be updated"}`, body)
	})

	t.Run("returns 404 for an unknown tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPatch, "/tenants/ghost", `{"name": "Ghost Corp"}`)
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error": "Tenant not found."}`, body)
	})

	t.Run("🎉 patches the mutable fields", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)

		payload := `{"name": "Acme Corp International", "contact_email": "ops@acme.example.com", "realm_override": "acme-idp"}`
		status, body := doRequest(t, r, http.MethodPatch, "/tenants/acme", payload)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"name":"Acme Corp International"`)
		assert.Contains(t, body, `"realm_override":"acme-idp"`)

		// An empty realm override clears the override back to the default.
		status, body = doRequest(t, r, http.MethodPatch, "/tenants/acme", `{"realm_override": ""}`)
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"realm_override":null`)
	})
}

func Test_TenantsHandler_Delete(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("returns 404 for an unknown tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodDelete, "/tenants/ghost", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error": "Tenant not found."}`, body)
	})

	t.Run("returns 400 when the tenant is not INACTIVE", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)

		status, body := doRequest(t, r, http.MethodDelete, "/tenants/acme", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error": "Only INACTIVE tenants can be deleted", "error_code": "400_2"}`, body)
	})

	t.Run("🎉 soft deletes an INACTIVE tenant", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.InactiveTenantStatus)

		status, body := doRequest(t, r, http.MethodDelete, "/tenants/acme", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"deleted_at":"`)

		// The tenant stops being routable.
		status, _ = doRequest(t, r, http.MethodGet, "/tenants/acme", "")
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func Test_TenantsHandler_lifecycle(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
	tnt := tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.PendingTenantStatus)
	require.False(t, tenant.CheckSchemaExistsFixture(t, ctx, dbConnectionPool, tnt.SchemaName))

	t.Run("🎉 activates a PENDING tenant and provisions its schema", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants/acme/activate", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"ACTIVE"`)
		assert.NotContains(t, body, `"schema_provisioned_at":null`)

		assert.True(t, tenant.CheckSchemaExistsFixture(t, ctx, dbConnectionPool, tnt.SchemaName))

		lifecycleEvents := tenant.GetOutboxEventsForTenantFixture(t, ctx, dbConnectionPool, "acme", events.TenantLifecycleTopic)
		require.Len(t, lifecycleEvents, 1)
		assert.Equal(t, events.TenantActivatedType, lifecycleEvents[0].EventType)

		schemaEvents := tenant.GetOutboxEventsForTenantFixture(t, ctx, dbConnectionPool, "acme", events.TenantSchemaCreatedTopic)
		require.Len(t, schemaEvents, 1)
		assert.Equal(t, events.TenantSchemaCreatedType, schemaEvents[0].EventType)
	})

	t.Run("returns 400 when activating an already ACTIVE tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants/acme/activate", "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error": "The tenant status does not allow this transition", "error_code": "400_2"}`, body)
	})

	t.Run("🎉 suspends and reactivates the tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants/acme/suspend", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"SUSPENDED"`)

		status, body = doRequest(t, r, http.MethodPost, "/tenants/acme/reactivate", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"ACTIVE"`)
	})

	t.Run("🎉 deactivates the tenant and brings it back", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants/acme/deactivate", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"INACTIVE"`)

		status, body = doRequest(t, r, http.MethodPost, "/tenants/acme/reactivate", "")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, `"status":"ACTIVE"`)
	})

	t.Run("returns 404 transitioning an unknown tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodPost, "/tenants/ghost/suspend", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error": "Tenant not found."}`, body)
	})

	// Every successful transition above bumped the version exactly once.
	finalTenant, err := handler.Manager.GetTenantByID(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(6), finalTenant.EventVersion)
}

func Test_TenantsHandler_Activate_provisioningFailure(t *testing.T) {
	dbt := dbtest.OpenWithAdminMigrationsOnly(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	tnt := tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.PendingTenantStatus)

	schemaEnsurerMock := tenant.NewSchemaEnsurerMock(t)
	schemaEnsurerMock.
		On("EnsureSchemaReady", mock.Anything, tnt.SchemaName).
		Return(fmt.Errorf("provisioning schema %s: connection refused", tnt.SchemaName)).
		Once()

	mockCrashTrackerClient := &crashtracker.MockCrashTrackerClient{}
	mockCrashTrackerClient.
		On("LogAndReportErrors", mock.Anything, mock.Anything, "Cannot provision schema for tenant acme").
		Once()

	handler := TenantsHandler{
		Manager:            tenant.NewManager(tenant.WithDatabase(dbConnectionPool)),
		SchemaEnsurer:      schemaEnsurerMock,
		CrashTrackerClient: mockCrashTrackerClient,
	}
	r := setupTenantsRouter(handler)

	// The activation itself committed, so the caller still gets a 200; the
	// registry is left unconfirmed for the retry job to converge.
	status, body := doRequest(t, r, http.MethodPost, "/tenants/acme/activate", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"ACTIVE"`)
	assert.Contains(t, body, `"schema_provisioned_at":null`)

	mockCrashTrackerClient.AssertExpectations(t)
}

func Test_TenantsHandler_GetRealm(t *testing.T) {
	handler, dbConnectionPool := setupTenantsHandler(t)
	r := setupTenantsRouter(handler)
	ctx := context.Background()

	t.Run("returns 404 for an unknown tenant", func(t *testing.T) {
		status, body := doRequest(t, r, http.MethodGet, "/tenants/ghost/realm", "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"error": "Tenant not found."}`, body)
	})

	t.Run("🎉 answers an empty realm when there is no override", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)

		status, body := doRequest(t, r, http.MethodGet, "/tenants/acme/realm", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"realm": ""}`, body)
	})

	t.Run("🎉 answers the configured realm override", func(t *testing.T) {
		defer tenant.DeleteAllTenantsFixture(t, ctx, dbConnectionPool)
		tenant.CreateTenantFixture(t, ctx, dbConnectionPool, "acme", tenant.ActiveTenantStatus)
		realm := "acme-idp"
		_, err := handler.Manager.UpdateTenant(ctx, &tenant.TenantUpdate{ID: "acme", RealmOverride: &realm})
		require.NoError(t, err)

		status, body := doRequest(t, r, http.MethodGet, "/tenants/acme/realm", "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"realm": "acme-idp"}`, body)
	})
}
