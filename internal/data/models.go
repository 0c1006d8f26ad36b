package data

import (
	"errors"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrMissingInput   = errors.New("missing input")
	// ErrTenantMismatch fires when a write targets a row owned by another
	// tenant. The search_path already scopes queries to one schema, so this
	// is defense in depth against a mis-routed pool.
	ErrTenantMismatch = errors.New("record does not belong to the requesting tenant")
)

type Models struct {
	Warehouses         *WarehouseModel
	StockItems         *StockItemModel
	InventoryMovements *InventoryMovementModel
	DBConnectionPool   db.DBConnectionPool
}

func NewModels(dbConnectionPool db.DBConnectionPool) (*Models, error) {
	if dbConnectionPool == nil {
		return nil, errors.New("dbConnectionPool is required for NewModels")
	}
	return &Models{
		Warehouses:         &WarehouseModel{dbConnectionPool: dbConnectionPool},
		StockItems:         &StockItemModel{dbConnectionPool: dbConnectionPool},
		InventoryMovements: &InventoryMovementModel{dbConnectionPool: dbConnectionPool},
		DBConnectionPool:   dbConnectionPool,
	}, nil
}
