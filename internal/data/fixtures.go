package data

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

func CreateWarehouseFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, tenantID, code, name string) *Warehouse {
	t.Helper()

	const query = `
		INSERT INTO warehouses
			(tenant_id, code, name, address)
		VALUES
			($1, $2, $3, $4)
		RETURNING
			*
	`

	var warehouse Warehouse
	err := sqlExec.GetContext(ctx, &warehouse, query, tenantID, code, name, "1 Depot Road")
	require.NoError(t, err)

	return &warehouse
}

func CreateStockItemFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, tenantID, warehouseID, sku, quantity string) *StockItem {
	t.Helper()

	const query = `
		INSERT INTO stock_items
			(tenant_id, warehouse_id, sku, description, quantity, unit)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			*
	`

	var item StockItem
	err := sqlExec.GetContext(ctx, &item, query,
		tenantID, warehouseID, sku, "Fixture stock item "+sku, decimal.RequireFromString(quantity), DefaultStockItemUnit)
	require.NoError(t, err)

	return &item
}

// CreateInventoryMovementFixture writes a movement row directly, without
// touching the stock level. Tests exercising the atomic adjustment should go
// through InventoryMovementModel.Insert instead.
func CreateInventoryMovementFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, tenantID, stockItemID string, movementType MovementType, quantity string) *InventoryMovement {
	t.Helper()

	const query = `
		INSERT INTO inventory_movements
			(tenant_id, stock_item_id, movement_type, quantity, reference, recorded_by)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			*
	`

	var movement InventoryMovement
	err := sqlExec.GetContext(ctx, &movement, query,
		tenantID, stockItemID, movementType, decimal.RequireFromString(quantity), "FIXTURE-REF", "fixture-user")
	require.NoError(t, err)

	return &movement
}

func DeleteAllInventoryMovementsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter) {
	t.Helper()

	_, err := sqlExec.ExecContext(ctx, "DELETE FROM inventory_movements")
	require.NoError(t, err)
}

func DeleteAllStockItemsFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter) {
	t.Helper()

	DeleteAllInventoryMovementsFixture(t, ctx, sqlExec)
	_, err := sqlExec.ExecContext(ctx, "DELETE FROM stock_items")
	require.NoError(t, err)
}

func DeleteAllWarehousesFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter) {
	t.Helper()

	DeleteAllStockItemsFixture(t, ctx, sqlExec)
	_, err := sqlExec.ExecContext(ctx, "DELETE FROM warehouses")
	require.NoError(t, err)
}
