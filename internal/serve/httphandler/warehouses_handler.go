package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpdecode"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpresponse"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/validators"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
)

type WarehousesHandler struct {
	Models *data.Models
}

type WarehouseRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (wr WarehouseRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	validator.Check(strings.TrimSpace(wr.Code) != "", "code", "code is required")
	validator.Check(strings.TrimSpace(wr.Name) != "", "name", "name is required")
	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

type PatchWarehouseRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (wr PatchWarehouseRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	validator.Check(wr.Name != nil || wr.Address != nil, "body", "at least one of [name, address] must be provided")
	if wr.Name != nil {
		validator.Check(strings.TrimSpace(*wr.Name) != "", "name", "name cannot be empty")
	}
	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

// GetWarehouses returns a paginated list of the tenant's warehouses.
func (h WarehousesHandler) GetWarehouses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewWarehouseQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(w)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	response, err := h.getWarehousesWithCount(ctx, currentTenant.ID, queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve warehouses", err, nil).Render(w)
		return
	}
	if response.Total == 0 {
		httpjson.RenderStatus(w, http.StatusOK, httpresponse.NewEmptyPaginatedResponse(), httpjson.JSON)
	} else {
		paginatedResponse, errResponse := httpresponse.NewPaginatedResponse(r, response.Result, queryParams.Page, queryParams.PageLimit, response.Total)
		if errResponse != nil {
			httperror.InternalError(ctx, "Cannot create paginated warehouses response", errResponse, nil).Render(w)
			return
		}
		httpjson.RenderStatus(w, http.StatusOK, paginatedResponse, httpjson.JSON)
	}
}

func (h WarehousesHandler) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	warehouseID := chi.URLParam(r, "id")

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	warehouse, err := h.Models.Warehouses.Get(ctx, currentTenant.ID, warehouseID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			httperror.NotFound("warehouse not found", err, nil).Render(w)
		} else {
			msg := fmt.Sprintf("Cannot retrieve warehouse with ID %s", warehouseID)
			httperror.InternalError(ctx, msg, err, nil).Render(w)
		}
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, warehouse, httpjson.JSON)
}

func (h WarehousesHandler) PostWarehouses(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody WarehouseRequest
	if err := httpdecode.DecodeJSON(req, &reqBody); err != nil {
		httperror.BadRequest("", err, nil).Render(rw)
		return
	}

	if httpErr := reqBody.validate(); httpErr != nil {
		httpErr.Render(rw)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(rw)
		return
	}

	warehouse, err := h.Models.Warehouses.Insert(ctx, data.WarehouseInsert{
		TenantID: currentTenant.ID,
		Code:     strings.TrimSpace(reqBody.Code),
		Name:     strings.TrimSpace(reqBody.Name),
		Address:  strings.TrimSpace(reqBody.Address),
	})
	if err != nil {
		if errors.Is(err, data.ErrWarehouseCodeAlreadyExists) {
			httperror.Conflict(data.ErrWarehouseCodeAlreadyExists.Error(), err, nil).Render(rw)
			return
		}
		httperror.InternalError(ctx, "", err, nil).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusCreated, warehouse, httpjson.JSON)
}

func (h WarehousesHandler) PatchWarehouse(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody PatchWarehouseRequest
	if err := httpdecode.DecodeJSON(req, &reqBody); err != nil {
		httperror.BadRequest("", err, nil).Render(rw)
		return
	}

	if httpErr := reqBody.validate(); httpErr != nil {
		httpErr.Render(rw)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(rw)
		return
	}

	warehouseID := chi.URLParam(req, "id")
	warehouse, err := h.Models.Warehouses.Update(ctx, currentTenant.ID, warehouseID, data.WarehouseUpdate{
		Name:    reqBody.Name,
		Address: reqBody.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			httperror.NotFound("warehouse not found", err, nil).Render(rw)
		case errors.Is(err, data.ErrMissingInput):
			httperror.BadRequest("The request is empty, please provide at least one field to update", err, nil).Render(rw)
		default:
			err = fmt.Errorf("updating warehouse ID %s: %w", warehouseID, err)
			httperror.InternalError(ctx, "", err, nil).Render(rw)
		}
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, warehouse, httpjson.JSON)
}

func (h WarehousesHandler) getWarehousesWithCount(ctx context.Context, tenantID string, queryParams *data.QueryParams) (*utils.ResultWithTotal, error) {
	totalWarehouses, err := h.Models.Warehouses.Count(ctx, tenantID, queryParams)
	if err != nil {
		return nil, fmt.Errorf("counting warehouses: %w", err)
	}

	var warehouses []data.Warehouse
	if totalWarehouses != 0 {
		warehouses, err = h.Models.Warehouses.GetAll(ctx, tenantID, queryParams)
		if err != nil {
			return nil, fmt.Errorf("querying warehouses: %w", err)
		}
	}

	return utils.NewResultWithTotal(totalWarehouses, warehouses), nil
}
