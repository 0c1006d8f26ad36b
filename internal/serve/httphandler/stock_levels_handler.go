package httphandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpdecode"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpresponse"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/validators"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type StockLevelsHandler struct {
	Models *data.Models
}

type CreateStockLevelRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

func (sr CreateStockLevelRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	validator.Check(strings.TrimSpace(sr.WarehouseID) != "", "warehouse_id", "warehouse_id is required")
	if strings.TrimSpace(sr.WarehouseID) != "" {
		if _, err := uuid.Parse(sr.WarehouseID); err != nil {
			validator.AddError("warehouse_id", "invalid warehouse id. valid value is a UUID")
		}
	}
	validator.Check(strings.TrimSpace(sr.SKU) != "", "sku", "sku is required")
	validator.Check(!sr.Quantity.IsNegative(), "quantity", "quantity cannot be negative")
	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

// PatchStockLevelRequest carries the mutable stock level fields. Quantity is
// deliberately absent: quantities only change through inventory movements.
type PatchStockLevelRequest struct {
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
}

func (sr PatchStockLevelRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	validator.Check(sr.Description != nil || sr.Unit != nil, "body", "at least one of [description, unit] must be provided")
	if sr.Unit != nil {
		validator.Check(strings.TrimSpace(*sr.Unit) != "", "unit", "unit cannot be empty")
	}
	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

// StockItemCSV is the export row format. It mirrors the import columns so an
// exported file can be re-imported as-is.
type StockItemCSV struct {
	WarehouseCode string          `csv:"warehouse_code"`
	SKU           string          `csv:"sku"`
	Description   string          `csv:"description"`
	Quantity      decimal.Decimal `csv:"quantity"`
	Unit          string          `csv:"unit"`
}

// GetStockLevels returns a paginated list of the tenant's stock items.
func (h StockLevelsHandler) GetStockLevels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewStockItemQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(w)
		return
	}

	queryParams.Filters = validator.ValidateAndGetStockItemFilters(queryParams.Filters)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(w)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	response, err := h.getStockLevelsWithCount(ctx, currentTenant.ID, queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve stock levels", err, nil).Render(w)
		return
	}
	if response.Total == 0 {
		httpjson.RenderStatus(w, http.StatusOK, httpresponse.NewEmptyPaginatedResponse(), httpjson.JSON)
	} else {
		paginatedResponse, errResponse := httpresponse.NewPaginatedResponse(r, response.Result, queryParams.Page, queryParams.PageLimit, response.Total)
		if errResponse != nil {
			httperror.InternalError(ctx, "Cannot create paginated stock levels response", errResponse, nil).Render(w)
			return
		}
		httpjson.RenderStatus(w, http.StatusOK, paginatedResponse, httpjson.JSON)
	}
}

func (h StockLevelsHandler) GetStockLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stockItemID := chi.URLParam(r, "id")

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	stockItem, err := h.Models.StockItems.Get(ctx, currentTenant.ID, stockItemID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			httperror.NotFound("stock item not found", err, nil).Render(w)
		} else {
			msg := fmt.Sprintf("Cannot retrieve stock item with ID %s", stockItemID)
			httperror.InternalError(ctx, msg, err, nil).Render(w)
		}
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, stockItem, httpjson.JSON)
}

func (h StockLevelsHandler) PostStockLevels(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody CreateStockLevelRequest
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

	stockItem, err := h.Models.StockItems.Insert(ctx, data.StockItemInsert{
		TenantID:    currentTenant.ID,
		WarehouseID: reqBody.WarehouseID,
		SKU:         strings.TrimSpace(reqBody.SKU),
		Description: strings.TrimSpace(reqBody.Description),
		Quantity:    reqBody.Quantity,
		Unit:        strings.TrimSpace(reqBody.Unit),
	})
	if err != nil {
		switch {
		case errors.Is(err, data.ErrStockItemSKUAlreadyExists):
			httperror.Conflict(data.ErrStockItemSKUAlreadyExists.Error(), err, nil).Render(rw)
		case errors.Is(err, data.ErrInvalidWarehouseID):
			httperror.BadRequest("warehouse_id does not reference an existing warehouse", err, nil).Render(rw)
		default:
			httperror.InternalError(ctx, "", err, nil).Render(rw)
		}
		return
	}

	httpjson.RenderStatus(rw, http.StatusCreated, stockItem, httpjson.JSON)
}

func (h StockLevelsHandler) PatchStockLevel(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody PatchStockLevelRequest
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

	stockItemID := chi.URLParam(req, "id")
	stockItem, err := h.Models.StockItems.Update(ctx, currentTenant.ID, stockItemID, data.StockItemUpdate{
		Description: reqBody.Description,
		Unit:        reqBody.Unit,
	})
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			httperror.NotFound("stock item not found", err, nil).Render(rw)
		case errors.Is(err, data.ErrMissingInput):
			httperror.BadRequest("The request is empty, please provide at least one field to update", err, nil).Render(rw)
		default:
			err = fmt.Errorf("updating stock item ID %s: %w", stockItemID, err)
			httperror.InternalError(ctx, "", err, nil).Render(rw)
		}
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, stockItem, httpjson.JSON)
}

// ImportStockLevels bulk-upserts stock levels from an uploaded CSV file. Rows
// reference warehouses by code; every row must validate and resolve before
// anything is written.
func (h StockLevelsHandler) ImportStockLevels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buf, header, httpErr := parseCsvFromMultipartRequest(r)
	if httpErr != nil {
		httpErr.Render(w)
		return
	}

	instructions, v := parseStockInstructionsFromCSV(ctx, bytes.NewReader(buf.Bytes()))
	if v != nil && v.HasErrors() {
		httperror.BadRequest("could not parse csv file", nil, v.Errors).Render(w)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	warehouseIDsByCode, err := h.getWarehouseIDsByCode(ctx, currentTenant.ID)
	if err != nil {
		httperror.InternalError(ctx, "Cannot resolve warehouse codes", err, nil).Render(w)
		return
	}

	inserts := make([]data.StockItemInsert, 0, len(instructions))
	validator := validators.NewValidator()
	for i, instruction := range instructions {
		lineNumber := i + 2 // +1 for header row, +1 for 0-index
		warehouseID, ok := warehouseIDsByCode[instruction.WarehouseCode]
		if !ok {
			validator.AddError(fmt.Sprintf("line %d - warehouse_code", lineNumber), fmt.Sprintf("warehouse with code %q does not exist", instruction.WarehouseCode))
			continue
		}
		quantity, qErr := decimal.NewFromString(instruction.Quantity)
		if qErr != nil {
			validator.AddError(fmt.Sprintf("line %d - quantity", lineNumber), "invalid quantity. Quantity must be a number")
			continue
		}
		inserts = append(inserts, data.StockItemInsert{
			TenantID:    currentTenant.ID,
			WarehouseID: warehouseID,
			SKU:         instruction.SKU,
			Description: instruction.Description,
			Quantity:    quantity,
			Unit:        instruction.Unit,
		})
	}
	if validator.HasErrors() {
		httperror.BadRequest("could not resolve all rows in the csv file", nil, validator.Errors).Render(w)
		return
	}

	stockItems, err := h.Models.StockItems.BulkUpsert(ctx, inserts)
	if err != nil {
		msg := fmt.Sprintf("Cannot import stock levels from file %s", header.Filename)
		httperror.InternalError(ctx, msg, err, nil).Render(w)
		return
	}

	log.Ctx(ctx).Infof("imported %d stock level rows from file %s", len(stockItems), header.Filename)

	response := map[string]interface{}{
		"message": "File imported successfully",
		"rows":    len(stockItems),
	}
	httpjson.Render(w, response, httpjson.JSON)
}

// ExportStockLevels writes every stock item matching the request filters as a
// CSV download. Pagination parameters are ignored.
func (h StockLevelsHandler) ExportStockLevels(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewStockItemQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(rw)
		return
	}

	queryParams.Filters = validator.ValidateAndGetStockItemFilters(queryParams.Filters)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(rw)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(rw)
		return
	}

	queryParams.Page = 0
	queryParams.PageLimit = 0

	stockItems, err := h.Models.StockItems.GetAll(ctx, currentTenant.ID, queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve stock levels", err, nil).Render(rw)
		return
	}

	warehouseCodesByID, err := h.getWarehouseCodesByID(ctx, currentTenant.ID)
	if err != nil {
		httperror.InternalError(ctx, "Cannot resolve warehouse codes", err, nil).Render(rw)
		return
	}

	stockItemCSVs := make([]*StockItemCSV, 0, len(stockItems))
	for _, item := range stockItems {
		code, ok := warehouseCodesByID[item.WarehouseID]
		if !ok {
			err = fmt.Errorf("warehouse %s referenced by stock item %s does not exist", item.WarehouseID, item.ID)
			httperror.InternalError(ctx, "", err, nil).Render(rw)
			return
		}
		stockItemCSVs = append(stockItemCSVs, &StockItemCSV{
			WarehouseCode: code,
			SKU:           item.SKU,
			Description:   item.Description,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
		})
	}

	fileName := fmt.Sprintf("stock_levels_%s.csv", time.Now().Format("2006-01-02-15-04-05"))
	rw.Header().Set("Content-Type", "text/csv")
	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))

	if err := gocsv.Marshal(stockItemCSVs, rw); err != nil {
		httperror.InternalError(ctx, "Failed to write CSV", err, nil).Render(rw)
		return
	}
}

func (h StockLevelsHandler) getStockLevelsWithCount(ctx context.Context, tenantID string, queryParams *data.QueryParams) (*utils.ResultWithTotal, error) {
	totalStockItems, err := h.Models.StockItems.Count(ctx, tenantID, queryParams)
	if err != nil {
		return nil, fmt.Errorf("counting stock items: %w", err)
	}

	var stockItems []data.StockItem
	if totalStockItems != 0 {
		stockItems, err = h.Models.StockItems.GetAll(ctx, tenantID, queryParams)
		if err != nil {
			return nil, fmt.Errorf("querying stock items: %w", err)
		}
	}

	return utils.NewResultWithTotal(totalStockItems, stockItems), nil
}

func (h StockLevelsHandler) getWarehouseIDsByCode(ctx context.Context, tenantID string) (map[string]string, error) {
	warehouses, err := h.Models.Warehouses.GetAll(ctx, tenantID, &data.QueryParams{})
	if err != nil {
		return nil, fmt.Errorf("querying warehouses: %w", err)
	}

	idsByCode := make(map[string]string, len(warehouses))
	for _, warehouse := range warehouses {
		idsByCode[warehouse.Code] = warehouse.ID
	}
	return idsByCode, nil
}

func (h StockLevelsHandler) getWarehouseCodesByID(ctx context.Context, tenantID string) (map[string]string, error) {
	warehouses, err := h.Models.Warehouses.GetAll(ctx, tenantID, &data.QueryParams{})
	if err != nil {
		return nil, fmt.Errorf("querying warehouses: %w", err)
	}

	codesByID := make(map[string]string, len(warehouses))
	for _, warehouse := range warehouses {
		codesByID[warehouse.ID] = warehouse.Code
	}
	return codesByID, nil
}

// parseCsvFromMultipartRequest parses the CSV file from a multipart request and returns the file content and header,
// or an error if the file is not a valid CSV or the MIME type is not text/csv.
func parseCsvFromMultipartRequest(r *http.Request) (*bytes.Buffer, *multipart.FileHeader, *httperror.HTTPError) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, httperror.BadRequest("could not parse file", err, nil)
	}
	defer file.Close()

	if err = utils.ValidatePathIsNotTraversal(header.Filename); err != nil {
		return nil, nil, httperror.BadRequest("file name contains invalid traversal pattern", nil, nil)
	}

	if filepath.Ext(header.Filename) != ".csv" {
		return nil, nil, httperror.BadRequest("the file extension should be .csv", nil, nil)
	}

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, file); err != nil {
		return nil, nil, httperror.BadRequest("could not read file", err, nil)
	}

	return &buf, header, nil
}

// parseStockInstructionsFromCSV parses the CSV file and returns a list of StockImportInstructions
func parseStockInstructionsFromCSV(ctx context.Context, reader io.Reader) ([]*data.StockImportInstruction, *validators.StockImportValidator) {
	validator := validators.NewStockImportValidator()

	instructions := []*data.StockImportInstruction{}
	if err := gocsv.Unmarshal(reader, &instructions); err != nil {
		log.Ctx(ctx).Errorf("error parsing csv file: %s", err.Error())
		validator.Errors["file"] = "could not parse file"
		return nil, validator
	}

	var sanitizedInstructions []*data.StockImportInstruction
	for i, instruction := range instructions {
		sanitizedInstruction := validator.SanitizeInstruction(instruction)
		lineNumber := i + 2 // +1 for header row, +1 for 0-index
		validator.ValidateInstruction(sanitizedInstruction, lineNumber)
		sanitizedInstructions = append(sanitizedInstructions, sanitizedInstruction)
	}

	validator.Check(len(sanitizedInstructions) > 0, "instructions", "no valid instructions found")

	if validator.HasErrors() {
		return nil, validator
	}

	return sanitizedInstructions, nil
}
