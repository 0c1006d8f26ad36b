package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
)

func tenantContext(tenantID string) context.Context {
	return tenant.SaveTenantInContext(context.Background(), &tenant.Tenant{
		ID:     tenantID,
		Name:   "Acme Corp",
		Status: tenant.ActiveTenantStatus,
	})
}

func Test_WarehousesHandler_GetWarehouses(t *testing.T) {
	models := data.SetupModels(t)
	ctx := tenantContext("acme")

	handler := &WarehousesHandler{Models: models}

	t.Run("🎉 successfully returns an empty list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses", nil)
		require.NoError(t, err)
		http.HandlerFunc(handler.GetWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"pagination": {"pages": 0, "total": 0}, "data": []}`, string(respBody))
	})

	t.Run("🎉 successfully returns a paginated list of warehouses", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		cpt := data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "CPT-01", "Cape Town Depot")
		data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "JHB-01", "Johannesburg Depot")
		data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "globex", "DBN-01", "Globex Durban")

		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses?page=1&page_limit=1&sort=code&direction=asc", nil)
		require.NoError(t, err)
		http.HandlerFunc(handler.GetWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		cptJSON, err := json.Marshal(cpt)
		require.NoError(t, err)
		wantJSON := fmt.Sprintf(`{
			"pagination": {
				"next": "/warehouses?direction=asc&page=2&page_limit=1&sort=code",
				"pages": 2,
				"total": 2
			},
			"data": [%s]
		}`, cptJSON)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, wantJSON, string(respBody))
	})

	t.Run("🎉 filters by code", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "CPT-01", "Cape Town Depot")
		data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "JHB-01", "Johannesburg Depot")

		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses?code=JHB-01", nil)
		require.NoError(t, err)
		http.HandlerFunc(handler.GetWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var paginatedResponse struct {
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
			Data []data.Warehouse `json:"data"`
		}
		err = json.Unmarshal(respBody, &paginatedResponse)
		require.NoError(t, err)
		assert.Equal(t, 1, paginatedResponse.Pagination.Total)
		require.Len(t, paginatedResponse.Data, 1)
		assert.Equal(t, "JHB-01", paginatedResponse.Data[0].Code)
	})

	t.Run("returns BadRequest for an invalid sort field", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses?sort=owner", nil)
		require.NoError(t, err)
		http.HandlerFunc(handler.GetWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error": "Request invalid", "extras": {"sort": "invalid sort field name"}}`, string(respBody))
	})

	t.Run("returns InternalError when the tenant is missing from the context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/warehouses", nil)
		require.NoError(t, err)
		http.HandlerFunc(handler.GetWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error": "Cannot retrieve the tenant from the context", "error_code": "500_1"}`, string(respBody))
	})
}

func Test_WarehousesHandler_GetWarehouse(t *testing.T) {
	models := data.SetupModels(t)
	ctx := tenantContext("acme")

	handler := &WarehousesHandler{Models: models}

	router := chi.NewRouter()
	router.Get("/warehouses/{id}", handler.GetWarehouse)

	t.Run("returns NotFound when the warehouse does not exist", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil)
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"error": "warehouse not found"}`, string(respBody))
	})

	t.Run("returns NotFound when the warehouse belongs to another tenant", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		other := data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "globex", "DBN-01", "Globex Durban")

		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses/"+other.ID, nil)
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("🎉 successfully returns a warehouse", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		expected := data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "JHB-01", "Johannesburg Depot")
		expectedJSON, err := json.Marshal(expected)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/warehouses/"+expected.ID, nil)
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, string(expectedJSON), string(respBody))
	})
}

func Test_WarehousesHandler_PostWarehouses(t *testing.T) {
	models := data.SetupModels(t)
	ctx := tenantContext("acme")

	handler := &WarehousesHandler{Models: models}

	t.Run("returns BadRequest when the payload is not valid JSON", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/warehouses", strings.NewReader(`invalid`))
		require.NoError(t, err)
		http.HandlerFunc(handler.PostWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error": "The request was invalid in some way."}`, string(respBody))
	})

	t.Run("returns BadRequest when required fields are missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/warehouses", strings.NewReader(`{}`))
		require.NoError(t, err)
		http.HandlerFunc(handler.PostWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		wantJSON := `{
			"error": "Request invalid",
			"extras": {
				"code": "code is required",
				"name": "name is required"
			}
		}`
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, wantJSON, string(respBody))
	})

	t.Run("🎉 successfully creates a warehouse", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)

		payload := `{"code": " JHB-01 ", "name": "Johannesburg Depot", "address": "1 Depot Road"}`
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/warehouses", strings.NewReader(payload))
		require.NoError(t, err)
		http.HandlerFunc(handler.PostWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var created data.Warehouse
		err = json.Unmarshal(respBody, &created)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "JHB-01", created.Code)
		assert.Equal(t, "Johannesburg Depot", created.Name)
		assert.Equal(t, "1 Depot Road", created.Address)

		fromDB, err := models.Warehouses.GetByCode(ctx, "acme", "JHB-01")
		require.NoError(t, err)
		assert.Equal(t, created.ID, fromDB.ID)
	})

	t.Run("returns Conflict for a duplicated warehouse code", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "JHB-01", "Johannesburg Depot")

		payload := `{"code": "JHB-01", "name": "Duplicate Depot"}`
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/warehouses", strings.NewReader(payload))
		require.NoError(t, err)
		http.HandlerFunc(handler.PostWarehouses).ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.JSONEq(t, `{"error": "a warehouse with this code already exists"}`, string(respBody))
	})
}

func Test_WarehousesHandler_PatchWarehouse(t *testing.T) {
	models := data.SetupModels(t)
	ctx := tenantContext("acme")

	handler := &WarehousesHandler{Models: models}

	router := chi.NewRouter()
	router.Patch("/warehouses/{id}", handler.PatchWarehouse)

	t.Run("returns BadRequest when the payload is empty", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, "/warehouses/6ba7b810-9dad-11d1-80b4-00c04fd430c8", strings.NewReader(`{}`))
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		wantJSON := `{
			"error": "Request invalid",
			"extras": {
				"body": "at least one of [name, address] must be provided"
			}
		}`
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, wantJSON, string(respBody))
	})

	t.Run("returns NotFound when the warehouse does not exist", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, "/warehouses/6ba7b810-9dad-11d1-80b4-00c04fd430c8", strings.NewReader(`{"name": "Renamed"}`))
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("🎉 successfully updates a warehouse", func(t *testing.T) {
		defer data.DeleteAllWarehousesFixture(t, ctx, models.DBConnectionPool)
		existing := data.CreateWarehouseFixture(t, ctx, models.DBConnectionPool, "acme", "JHB-01", "Johannesburg Depot")

		payload := `{"name": "Johannesburg Main Depot", "address": "2 Depot Road"}`
		rr := httptest.NewRecorder()
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, "/warehouses/"+existing.ID, strings.NewReader(payload))
		require.NoError(t, err)
		router.ServeHTTP(rr, req)

		resp := rr.Result()
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated data.Warehouse
		err = json.Unmarshal(respBody, &updated)
		require.NoError(t, err)
		assert.Equal(t, "Johannesburg Main Depot", updated.Name)
		assert.Equal(t, "2 Depot Road", updated.Address)
		assert.Equal(t, "JHB-01", updated.Code)
	})
}
