package data

import "fmt"

type QueryParams struct {
	Query     string
	Page      int
	PageLimit int
	SortBy    SortField
	SortOrder SortOrder
	Filters   map[FilterKey]interface{}
}

type SortOrder string

const (
	SortOrderASC  SortOrder = "ASC"
	SortOrderDESC SortOrder = "DESC"
)

type SortField string

const (
	SortFieldName       SortField = "name"
	SortFieldCode       SortField = "code"
	SortFieldSKU        SortField = "sku"
	SortFieldQuantity   SortField = "quantity"
	SortFieldOccurredAt SortField = "occurred_at"
	SortFieldCreatedAt  SortField = "created_at"
	SortFieldUpdatedAt  SortField = "updated_at"
)

type FilterKey string

const (
	FilterKeyID               FilterKey = "id"
	FilterKeyCode             FilterKey = "code"
	FilterKeyWarehouseID      FilterKey = "warehouse_id"
	FilterKeySKU              FilterKey = "sku"
	FilterKeyStockItemID      FilterKey = "stock_item_id"
	FilterKeyMovementType     FilterKey = "movement_type"
	FilterKeyOccurredAtAfter  FilterKey = "occurred_at_after"
	FilterKeyOccurredAtBefore FilterKey = "occurred_at_before"
)

func (fk FilterKey) Equals() string {
	return fmt.Sprintf("%s = ?", fk)
}
