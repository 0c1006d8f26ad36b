package validators

import (
	"github.com/google/uuid"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
)

type StockItemQueryValidator struct {
	QueryValidator
}

// NewStockItemQueryValidator creates a new StockItemQueryValidator with the provided configuration.
func NewStockItemQueryValidator() *StockItemQueryValidator {
	return &StockItemQueryValidator{
		QueryValidator: QueryValidator{
			DefaultSortField:  data.DefaultStockItemSortField,
			DefaultSortOrder:  data.DefaultStockItemSortOrder,
			AllowedSortFields: data.AllowedStockItemSorts,
			AllowedFilters:    data.AllowedStockItemFilters,
			Validator:         NewValidator(),
		},
	}
}

// ValidateAndGetStockItemFilters validates the filters and returns a map of valid filters.
func (qv *StockItemQueryValidator) ValidateAndGetStockItemFilters(filters map[data.FilterKey]interface{}) map[data.FilterKey]interface{} {
	validFilters := make(map[data.FilterKey]interface{})
	if filters[data.FilterKeyWarehouseID] != nil {
		warehouseID := filters[data.FilterKeyWarehouseID].(string)
		if _, err := uuid.Parse(warehouseID); err != nil {
			qv.Check(false, string(data.FilterKeyWarehouseID), "invalid warehouse id. valid value is a UUID")
		} else {
			validFilters[data.FilterKeyWarehouseID] = warehouseID
		}
	}
	if filters[data.FilterKeySKU] != nil {
		validFilters[data.FilterKeySKU] = filters[data.FilterKeySKU]
	}
	return validFilters
}
