package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

var (
	ErrStockItemSKUAlreadyExists = errors.New("a stock item with this SKU already exists in the warehouse")
	ErrInvalidWarehouseID        = errors.New("invalid warehouse ID")
)

const DefaultStockItemUnit = "EA"

type StockItem struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"-" db:"tenant_id"`
	WarehouseID string          `json:"warehouse_id" db:"warehouse_id"`
	SKU         string          `json:"sku" db:"sku"`
	Description string          `json:"description,omitempty" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Unit        string          `json:"unit" db:"unit"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type StockItemInsert struct {
	TenantID    string          `json:"-"`
	WarehouseID string          `json:"warehouse_id"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
}

func (sii StockItemInsert) Validate() error {
	if sii.TenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if sii.WarehouseID == "" {
		return fmt.Errorf("warehouse ID is required")
	}
	if strings.TrimSpace(sii.SKU) == "" {
		return fmt.Errorf("SKU is required")
	}
	if sii.Quantity.IsNegative() {
		return fmt.Errorf("quantity cannot be negative")
	}
	return nil
}

// StockItemUpdate carries the mutable stock item fields. Quantities are not
// updatable here: every quantity change goes through an inventory movement
// so the audit trail stays complete.
type StockItemUpdate struct {
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
}

func (siu StockItemUpdate) Validate() error {
	if siu.Description == nil && siu.Unit == nil {
		return ErrMissingInput
	}
	if siu.Unit != nil && strings.TrimSpace(*siu.Unit) == "" {
		return fmt.Errorf("unit cannot be empty")
	}
	return nil
}

type StockItemModel struct {
	dbConnectionPool db.DBConnectionPool
}

var (
	DefaultStockItemSortField = SortFieldSKU
	DefaultStockItemSortOrder = SortOrderASC
	AllowedStockItemFilters   = []FilterKey{FilterKeyWarehouseID, FilterKeySKU}
	AllowedStockItemSorts     = []SortField{SortFieldSKU, SortFieldQuantity, SortFieldCreatedAt, SortFieldUpdatedAt}
)

func (m *StockItemModel) Get(ctx context.Context, tenantID, id string) (*StockItem, error) {
	const query = `
		SELECT
			*
		FROM
			stock_items si
		WHERE
			si.id = $1
			AND si.tenant_id = $2
	`

	var item StockItem
	err := m.dbConnectionPool.GetContext(ctx, &item, query, id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying stock item ID %s: %w", id, err)
	}
	return &item, nil
}

func (m *StockItemModel) GetAll(ctx context.Context, tenantID string, queryParams *QueryParams) ([]StockItem, error) {
	query, params := newStockItemQuery("SELECT si.* FROM stock_items si", tenantID, queryParams, true, m.dbConnectionPool)

	items := []StockItem{}
	err := m.dbConnectionPool.SelectContext(ctx, &items, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying stock items: %w", err)
	}
	return items, nil
}

func (m *StockItemModel) Count(ctx context.Context, tenantID string, queryParams *QueryParams) (int, error) {
	query, params := newStockItemQuery("SELECT COUNT(*) FROM stock_items si", tenantID, queryParams, false, m.dbConnectionPool)

	var count int
	err := m.dbConnectionPool.GetContext(ctx, &count, query, params...)
	if err != nil {
		return 0, fmt.Errorf("counting stock items: %w", err)
	}
	return count, nil
}

func (m *StockItemModel) Insert(ctx context.Context, insert StockItemInsert) (*StockItem, error) {
	if err := insert.Validate(); err != nil {
		return nil, fmt.Errorf("validating stock item insert: %w", err)
	}
	if insert.Unit == "" {
		insert.Unit = DefaultStockItemUnit
	}

	const query = `
		INSERT INTO stock_items
			(tenant_id, warehouse_id, sku, description, quantity, unit)
		VALUES
			($1, $2, $3, $4, $5, $6)
		RETURNING
			*
	`

	var item StockItem
	err := m.dbConnectionPool.GetContext(ctx, &item, query,
		insert.TenantID, insert.WarehouseID, insert.SKU, insert.Description, insert.Quantity, insert.Unit)
	if err != nil {
		var pqError *pq.Error
		if errors.As(err, &pqError) {
			constraintErrMap := map[string]error{
				"stock_items_tenant_id_warehouse_id_sku_key": ErrStockItemSKUAlreadyExists,
				"stock_items_warehouse_id_fkey":              ErrInvalidWarehouseID,
			}
			if constraintErr, ok := constraintErrMap[pqError.Constraint]; ok {
				return nil, constraintErr
			}
		}
		return nil, fmt.Errorf("inserting stock item: %w", err)
	}
	return &item, nil
}

func (m *StockItemModel) Update(ctx context.Context, tenantID, id string, update StockItemUpdate) (*StockItem, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	fields := []string{}
	args := []interface{}{}
	if update.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Unit != nil {
		fields = append(fields, "unit = ?")
		args = append(args, *update.Unit)
	}
	fields = append(fields, "updated_at = NOW()")

	args = append(args, id, tenantID)
	query := fmt.Sprintf(`
		UPDATE
			stock_items
		SET
			%s
		WHERE
			id = ?
			AND tenant_id = ?
		RETURNING
			*
	`, strings.Join(fields, ", "))
	query = m.dbConnectionPool.Rebind(query)

	var item StockItem
	err := m.dbConnectionPool.GetContext(ctx, &item, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("updating stock item ID %s: %w", id, err)
	}
	return &item, nil
}

// BulkUpsert inserts or refreshes stock items in one statement, keyed on
// (tenant_id, warehouse_id, sku). Rows that already exist get their
// quantity, description and unit replaced. Used by the CSV import, which
// validates rows before they reach this point.
func (m *StockItemModel) BulkUpsert(ctx context.Context, inserts []StockItemInsert) ([]StockItem, error) {
	if len(inserts) == 0 {
		return []StockItem{}, nil
	}

	warehouseIDs := make([]string, len(inserts))
	skus := make([]string, len(inserts))
	descriptions := make([]string, len(inserts))
	quantities := make([]string, len(inserts))
	units := make([]string, len(inserts))
	for i, insert := range inserts {
		if err := insert.Validate(); err != nil {
			return nil, fmt.Errorf("validating stock item %d: %w", i, err)
		}
		if insert.TenantID != inserts[0].TenantID {
			return nil, ErrTenantMismatch
		}
		if insert.Unit == "" {
			insert.Unit = DefaultStockItemUnit
		}
		warehouseIDs[i] = insert.WarehouseID
		skus[i] = insert.SKU
		descriptions[i] = insert.Description
		quantities[i] = insert.Quantity.String()
		units[i] = insert.Unit
	}

	const query = `
		INSERT INTO stock_items
			(tenant_id, warehouse_id, sku, description, quantity, unit)
		SELECT
			$1, t.warehouse_id, t.sku, t.description, t.quantity, t.unit
		FROM
			UNNEST($2::uuid[], $3::text[], $4::text[], $5::numeric[], $6::text[])
				AS t(warehouse_id, sku, description, quantity, unit)
		ON CONFLICT (tenant_id, warehouse_id, sku) DO UPDATE SET
			description = EXCLUDED.description,
			quantity = EXCLUDED.quantity,
			unit = EXCLUDED.unit,
			updated_at = NOW()
		RETURNING
			*
	`

	items := []StockItem{}
	err := m.dbConnectionPool.SelectContext(ctx, &items, query,
		inserts[0].TenantID, pq.Array(warehouseIDs), pq.Array(skus), pq.Array(descriptions), pq.Array(quantities), pq.Array(units))
	if err != nil {
		var pqError *pq.Error
		if errors.As(err, &pqError) && pqError.Constraint == "stock_items_warehouse_id_fkey" {
			return nil, ErrInvalidWarehouseID
		}
		return nil, fmt.Errorf("upserting stock items: %w", err)
	}
	return items, nil
}

// newStockItemQuery generates the full query and parameters for a stock item search query
func newStockItemQuery(baseQuery, tenantID string, queryParams *QueryParams, paginated bool, sqlExec db.SQLExecuter) (string, []interface{}) {
	qb := NewQueryBuilder(baseQuery)
	qb.AddCondition("si.tenant_id = ?", tenantID)
	if queryParams.Filters[FilterKeyWarehouseID] != nil {
		qb.AddCondition("si.warehouse_id = ?", queryParams.Filters[FilterKeyWarehouseID])
	}
	if queryParams.Filters[FilterKeySKU] != nil {
		qb.AddCondition("si.sku = ?", queryParams.Filters[FilterKeySKU])
	}
	if queryParams.Query != "" {
		qb.AddCondition("(si.sku ILIKE ? OR si.description ILIKE ?)", "%"+queryParams.Query+"%", "%"+queryParams.Query+"%")
	}
	if paginated {
		qb.AddSorting(queryParams.SortBy, queryParams.SortOrder, "si")
		qb.AddPagination(queryParams.Page, queryParams.PageLimit)
	}
	return qb.BuildAndRebind(sqlExec)
}
