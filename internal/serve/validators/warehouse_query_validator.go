package validators

import (
	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
)

type WarehouseQueryValidator struct {
	QueryValidator
}

// NewWarehouseQueryValidator creates a new WarehouseQueryValidator with the provided configuration.
func NewWarehouseQueryValidator() *WarehouseQueryValidator {
	return &WarehouseQueryValidator{
		QueryValidator: QueryValidator{
			DefaultSortField:  data.DefaultWarehouseSortField,
			DefaultSortOrder:  data.DefaultWarehouseSortOrder,
			AllowedSortFields: data.AllowedWarehouseSorts,
			AllowedFilters:    data.AllowedWarehouseFilters,
			Validator:         NewValidator(),
		},
	}
}
