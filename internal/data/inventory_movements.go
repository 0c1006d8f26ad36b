package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

var (
	ErrInvalidStockItemID = errors.New("invalid stock item ID")
	ErrInsufficientStock  = errors.New("insufficient stock for this movement")
)

type MovementType string

const (
	ReceiptMovementType    MovementType = "RECEIPT"
	IssueMovementType      MovementType = "ISSUE"
	AdjustmentMovementType MovementType = "ADJUSTMENT"
)

func (t MovementType) IsValid() bool {
	return slices.Contains([]MovementType{ReceiptMovementType, IssueMovementType, AdjustmentMovementType}, t)
}

// quantityDelta converts the movement quantity into the signed amount applied
// to the stock level: receipts add, issues subtract, adjustments carry their
// own sign.
func (t MovementType) quantityDelta(quantity decimal.Decimal) decimal.Decimal {
	if t == IssueMovementType {
		return quantity.Neg()
	}
	return quantity
}

type InventoryMovement struct {
	ID          string          `json:"id" db:"id"`
	TenantID    string          `json:"-" db:"tenant_id"`
	StockItemID string          `json:"stock_item_id" db:"stock_item_id"`
	Type        MovementType    `json:"movement_type" db:"movement_type"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Reference   string          `json:"reference,omitempty" db:"reference"`
	RecordedBy  string          `json:"recorded_by,omitempty" db:"recorded_by"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type InventoryMovementInsert struct {
	TenantID    string          `json:"-"`
	StockItemID string          `json:"stock_item_id"`
	Type        MovementType    `json:"movement_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference"`
	RecordedBy  string          `json:"recorded_by"`
	OccurredAt  *time.Time      `json:"occurred_at"`
}

func (imi InventoryMovementInsert) Validate() error {
	if imi.TenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if imi.StockItemID == "" {
		return fmt.Errorf("stock item ID is required")
	}
	if !imi.Type.IsValid() {
		return fmt.Errorf("invalid movement type %q", imi.Type)
	}
	switch imi.Type {
	case ReceiptMovementType, IssueMovementType:
		if !imi.Quantity.IsPositive() {
			return fmt.Errorf("quantity must be positive for %s movements", imi.Type)
		}
	case AdjustmentMovementType:
		if imi.Quantity.IsZero() {
			return fmt.Errorf("quantity cannot be zero for %s movements", imi.Type)
		}
	}
	return nil
}

type InventoryMovementModel struct {
	dbConnectionPool db.DBConnectionPool
}

var (
	DefaultInventoryMovementSortField = SortFieldOccurredAt
	DefaultInventoryMovementSortOrder = SortOrderDESC
	AllowedInventoryMovementFilters   = []FilterKey{FilterKeyStockItemID, FilterKeyMovementType, FilterKeyOccurredAtAfter, FilterKeyOccurredAtBefore}
	AllowedInventoryMovementSorts     = []SortField{SortFieldOccurredAt, SortFieldCreatedAt}
)

func (m *InventoryMovementModel) Get(ctx context.Context, tenantID, id string) (*InventoryMovement, error) {
	const query = `
		SELECT
			*
		FROM
			inventory_movements im
		WHERE
			im.id = $1
			AND im.tenant_id = $2
	`

	var movement InventoryMovement
	err := m.dbConnectionPool.GetContext(ctx, &movement, query, id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying inventory movement ID %s: %w", id, err)
	}
	return &movement, nil
}

func (m *InventoryMovementModel) GetAll(ctx context.Context, tenantID string, queryParams *QueryParams) ([]InventoryMovement, error) {
	query, params := newInventoryMovementQuery("SELECT im.* FROM inventory_movements im", tenantID, queryParams, true, m.dbConnectionPool)

	movements := []InventoryMovement{}
	err := m.dbConnectionPool.SelectContext(ctx, &movements, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying inventory movements: %w", err)
	}
	return movements, nil
}

func (m *InventoryMovementModel) Count(ctx context.Context, tenantID string, queryParams *QueryParams) (int, error) {
	query, params := newInventoryMovementQuery("SELECT COUNT(*) FROM inventory_movements im", tenantID, queryParams, false, m.dbConnectionPool)

	var count int
	err := m.dbConnectionPool.GetContext(ctx, &count, query, params...)
	if err != nil {
		return 0, fmt.Errorf("counting inventory movements: %w", err)
	}
	return count, nil
}

// Insert records a movement and applies it to the stock level in the same
// transaction. The stock row is locked first so concurrent movements against
// the same item serialize instead of losing updates, and the level can never
// go below zero.
func (m *InventoryMovementModel) Insert(ctx context.Context, insert InventoryMovementInsert) (*InventoryMovement, error) {
	if err := insert.Validate(); err != nil {
		return nil, fmt.Errorf("validating inventory movement insert: %w", err)
	}

	return db.RunInTransactionWithResult(ctx, m.dbConnectionPool, nil, func(dbTx db.DBTransaction) (*InventoryMovement, error) {
		const lockQuery = `
			SELECT
				*
			FROM
				stock_items
			WHERE
				id = $1
			FOR UPDATE
		`

		var item StockItem
		err := dbTx.GetContext(ctx, &item, lockQuery, insert.StockItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrRecordNotFound
			}
			return nil, fmt.Errorf("locking stock item ID %s: %w", insert.StockItemID, err)
		}
		if item.TenantID != insert.TenantID {
			return nil, ErrTenantMismatch
		}

		newQuantity := item.Quantity.Add(insert.Type.quantityDelta(insert.Quantity))
		if newQuantity.IsNegative() {
			return nil, fmt.Errorf("%w: stock item %s holds %s, movement needs %s",
				ErrInsufficientStock, item.ID, item.Quantity, insert.Quantity)
		}

		const updateQuery = `
			UPDATE
				stock_items
			SET
				quantity = $2,
				updated_at = NOW()
			WHERE
				id = $1
		`
		if _, err = dbTx.ExecContext(ctx, updateQuery, item.ID, newQuantity); err != nil {
			return nil, fmt.Errorf("adjusting stock item ID %s: %w", item.ID, err)
		}

		const insertQuery = `
			INSERT INTO inventory_movements
				(tenant_id, stock_item_id, movement_type, quantity, reference, recorded_by, occurred_at)
			VALUES
				($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
			RETURNING
				*
		`

		var movement InventoryMovement
		err = dbTx.GetContext(ctx, &movement, insertQuery,
			insert.TenantID, insert.StockItemID, insert.Type, insert.Quantity, insert.Reference, insert.RecordedBy, insert.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("inserting inventory movement: %w", err)
		}
		return &movement, nil
	})
}

// newInventoryMovementQuery generates the full query and parameters for a movement search query
func newInventoryMovementQuery(baseQuery, tenantID string, queryParams *QueryParams, paginated bool, sqlExec db.SQLExecuter) (string, []interface{}) {
	qb := NewQueryBuilder(baseQuery)
	qb.AddCondition("im.tenant_id = ?", tenantID)
	if queryParams.Filters[FilterKeyStockItemID] != nil {
		qb.AddCondition("im.stock_item_id = ?", queryParams.Filters[FilterKeyStockItemID])
	}
	if queryParams.Filters[FilterKeyMovementType] != nil {
		qb.AddCondition("im.movement_type = ?", queryParams.Filters[FilterKeyMovementType])
	}
	if queryParams.Filters[FilterKeyOccurredAtAfter] != nil {
		qb.AddCondition("im.occurred_at >= ?", queryParams.Filters[FilterKeyOccurredAtAfter])
	}
	if queryParams.Filters[FilterKeyOccurredAtBefore] != nil {
		qb.AddCondition("im.occurred_at <= ?", queryParams.Filters[FilterKeyOccurredAtBefore])
	}
	if paginated {
		qb.AddSorting(queryParams.SortBy, queryParams.SortOrder, "im")
		qb.AddPagination(queryParams.Page, queryParams.PageLimit)
	}
	return qb.BuildAndRebind(sqlExec)
}
