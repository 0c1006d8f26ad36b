package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
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
	"github.com/kumbirai/warehouse-management-system-sub005/internal/wmscontext"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type InventoryMovementsHandler struct {
	Models *data.Models
}

type CreateInventoryMovementRequest struct {
	StockItemID  string          `json:"stock_item_id"`
	MovementType string          `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reference    string          `json:"reference"`
	OccurredAt   *time.Time      `json:"occurred_at"`
}

func (mr CreateInventoryMovementRequest) movementType() data.MovementType {
	return data.MovementType(strings.ToUpper(strings.TrimSpace(mr.MovementType)))
}

func (mr CreateInventoryMovementRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()
	validator.Check(strings.TrimSpace(mr.StockItemID) != "", "stock_item_id", "stock_item_id is required")
	if strings.TrimSpace(mr.StockItemID) != "" {
		if _, err := uuid.Parse(mr.StockItemID); err != nil {
			validator.AddError("stock_item_id", "invalid stock item id. valid value is a UUID")
		}
	}

	movementType := mr.movementType()
	if !movementType.IsValid() {
		validator.AddError("movement_type", "invalid movement type. valid values are: receipt, issue, adjustment")
	} else {
		switch movementType {
		case data.ReceiptMovementType, data.IssueMovementType:
			validator.Check(mr.Quantity.IsPositive(), "quantity", fmt.Sprintf("quantity must be positive for %s movements", strings.ToLower(string(movementType))))
		case data.AdjustmentMovementType:
			validator.Check(!mr.Quantity.IsZero(), "quantity", "quantity cannot be zero for adjustment movements")
		}
	}

	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

// GetInventoryMovements returns a paginated list of the tenant's movements.
func (h InventoryMovementsHandler) GetInventoryMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewInventoryMovementQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(w)
		return
	}

	queryParams.Filters = validator.ValidateAndGetMovementFilters(queryParams.Filters)
	if validator.HasErrors() {
		httperror.BadRequest("Request invalid", nil, validator.Errors).Render(w)
		return
	}

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	response, err := h.getInventoryMovementsWithCount(ctx, currentTenant.ID, queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve inventory movements", err, nil).Render(w)
		return
	}
	if response.Total == 0 {
		httpjson.RenderStatus(w, http.StatusOK, httpresponse.NewEmptyPaginatedResponse(), httpjson.JSON)
	} else {
		paginatedResponse, errResponse := httpresponse.NewPaginatedResponse(r, response.Result, queryParams.Page, queryParams.PageLimit, response.Total)
		if errResponse != nil {
			httperror.InternalError(ctx, "Cannot create paginated inventory movements response", errResponse, nil).Render(w)
			return
		}
		httpjson.RenderStatus(w, http.StatusOK, paginatedResponse, httpjson.JSON)
	}
}

func (h InventoryMovementsHandler) GetInventoryMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movementID := chi.URLParam(r, "id")

	currentTenant, err := tenant.GetTenantFromContext(ctx)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(w)
		return
	}

	movement, err := h.Models.InventoryMovements.Get(ctx, currentTenant.ID, movementID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			httperror.NotFound("inventory movement not found", err, nil).Render(w)
		} else {
			msg := fmt.Sprintf("Cannot retrieve inventory movement with ID %s", movementID)
			httperror.InternalError(ctx, msg, err, nil).Render(w)
		}
		return
	}

	httpjson.RenderStatus(w, http.StatusOK, movement, httpjson.JSON)
}

// PostInventoryMovements records a movement and applies it to the stock level
// atomically. The recorded_by attribution comes from the user-id header bound
// by the tenant middleware.
func (h InventoryMovementsHandler) PostInventoryMovements(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody CreateInventoryMovementRequest
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

	recordedBy, err := wmscontext.GetUserIDFromContext(ctx)
	if err != nil {
		log.Ctx(ctx).Warnf("recording inventory movement without user attribution: %v", err)
	}

	movement, err := h.Models.InventoryMovements.Insert(ctx, data.InventoryMovementInsert{
		TenantID:    currentTenant.ID,
		StockItemID: reqBody.StockItemID,
		Type:        reqBody.movementType(),
		Quantity:    reqBody.Quantity,
		Reference:   strings.TrimSpace(reqBody.Reference),
		RecordedBy:  recordedBy,
		OccurredAt:  reqBody.OccurredAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound), errors.Is(err, data.ErrTenantMismatch):
			httperror.NotFound("stock item not found", err, nil).Render(rw)
		case errors.Is(err, data.ErrInsufficientStock):
			httperror.BadRequest(data.ErrInsufficientStock.Error(), err, nil).Render(rw)
		default:
			httperror.InternalError(ctx, "Cannot record inventory movement", err, nil).Render(rw)
		}
		return
	}

	httpjson.RenderStatus(rw, http.StatusCreated, movement, httpjson.JSON)
}

func (h InventoryMovementsHandler) getInventoryMovementsWithCount(ctx context.Context, tenantID string, queryParams *data.QueryParams) (*utils.ResultWithTotal, error) {
	totalMovements, err := h.Models.InventoryMovements.Count(ctx, tenantID, queryParams)
	if err != nil {
		return nil, fmt.Errorf("counting inventory movements: %w", err)
	}

	var movements []data.InventoryMovement
	if totalMovements != 0 {
		movements, err = h.Models.InventoryMovements.GetAll(ctx, tenantID, queryParams)
		if err != nil {
			return nil, fmt.Errorf("querying inventory movements: %w", err)
		}
	}

	return utils.NewResultWithTotal(totalMovements, movements), nil
}
