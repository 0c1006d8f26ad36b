package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
)

func Test_StockItemQueryValidator_ValidateAndGetStockItemFilters(t *testing.T) {
	t.Run("Valid filters", func(t *testing.T) {
		validator := NewStockItemQueryValidator()
		filters := map[data.FilterKey]interface{}{
			data.FilterKeyWarehouseID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			data.FilterKeySKU:         "WIDGET-001",
		}

		actual := validator.ValidateAndGetStockItemFilters(filters)

		assert.False(t, validator.HasErrors())
		assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", actual[data.FilterKeyWarehouseID])
		assert.Equal(t, "WIDGET-001", actual[data.FilterKeySKU])
	})

	t.Run("Invalid warehouse id", func(t *testing.T) {
		validator := NewStockItemQueryValidator()
		filters := map[data.FilterKey]interface{}{
			data.FilterKeyWarehouseID: "not-a-uuid",
		}

		actual := validator.ValidateAndGetStockItemFilters(filters)

		assert.NotContains(t, actual, data.FilterKeyWarehouseID)
		assert.Equal(t, 1, len(validator.Errors))
		assert.Equal(t, "invalid warehouse id. valid value is a UUID", validator.Errors["warehouse_id"])
	})

	t.Run("Empty filters", func(t *testing.T) {
		validator := NewStockItemQueryValidator()

		actual := validator.ValidateAndGetStockItemFilters(map[data.FilterKey]interface{}{})

		assert.False(t, validator.HasErrors())
		assert.Empty(t, actual)
	})
}
