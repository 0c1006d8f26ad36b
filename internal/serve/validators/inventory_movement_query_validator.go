package validators

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
)

type InventoryMovementQueryValidator struct {
	QueryValidator
}

// NewInventoryMovementQueryValidator creates a new InventoryMovementQueryValidator with the provided configuration.
func NewInventoryMovementQueryValidator() *InventoryMovementQueryValidator {
	return &InventoryMovementQueryValidator{
		QueryValidator: QueryValidator{
			DefaultSortField:  data.DefaultInventoryMovementSortField,
			DefaultSortOrder:  data.DefaultInventoryMovementSortOrder,
			AllowedSortFields: data.AllowedInventoryMovementSorts,
			AllowedFilters:    data.AllowedInventoryMovementFilters,
			Validator:         NewValidator(),
		},
	}
}

// ValidateAndGetMovementFilters validates the filters and returns a map of valid filters.
func (qv *InventoryMovementQueryValidator) ValidateAndGetMovementFilters(filters map[data.FilterKey]interface{}) map[data.FilterKey]interface{} {
	validFilters := make(map[data.FilterKey]interface{})
	if filters[data.FilterKeyStockItemID] != nil {
		stockItemID := filters[data.FilterKeyStockItemID].(string)
		if _, err := uuid.Parse(stockItemID); err != nil {
			qv.Check(false, string(data.FilterKeyStockItemID), "invalid stock item id. valid value is a UUID")
		} else {
			validFilters[data.FilterKeyStockItemID] = stockItemID
		}
	}
	if filters[data.FilterKeyMovementType] != nil {
		validFilters[data.FilterKeyMovementType] = qv.validateAndGetMovementType(filters[data.FilterKeyMovementType].(string))
	}

	occurredAtAfter := qv.ValidateAndGetTimeParams(string(data.FilterKeyOccurredAtAfter), filters[data.FilterKeyOccurredAtAfter])
	occurredAtBefore := qv.ValidateAndGetTimeParams(string(data.FilterKeyOccurredAtBefore), filters[data.FilterKeyOccurredAtBefore])

	if qv.HasErrors() {
		return validFilters
	}

	if !occurredAtAfter.IsZero() && !occurredAtBefore.IsZero() {
		qv.Check(occurredAtAfter.Before(occurredAtBefore), string(data.FilterKeyOccurredAtAfter), "occurred_at_after must be before occurred_at_before")
	}

	if !occurredAtAfter.IsZero() {
		validFilters[data.FilterKeyOccurredAtAfter] = occurredAtAfter
	}
	if !occurredAtBefore.IsZero() {
		validFilters[data.FilterKeyOccurredAtBefore] = occurredAtBefore
	}
	return validFilters
}

// validateAndGetMovementType validates the movement type parameter and returns the corresponding MovementType.
func (qv *InventoryMovementQueryValidator) validateAndGetMovementType(movementType string) data.MovementType {
	mt := data.MovementType(strings.ToUpper(movementType))
	if !mt.IsValid() {
		qv.Check(false, string(data.FilterKeyMovementType), "invalid parameter. valid values are: receipt, issue, adjustment")
		return ""
	}
	return mt
}
