package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
)

var ErrWarehouseCodeAlreadyExists = errors.New("a warehouse with this code already exists")

type Warehouse struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"-" db:"tenant_id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WarehouseInsert struct {
	TenantID string `json:"-"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

func (wi WarehouseInsert) Validate() error {
	if wi.TenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if strings.TrimSpace(wi.Code) == "" {
		return fmt.Errorf("warehouse code is required")
	}
	if strings.TrimSpace(wi.Name) == "" {
		return fmt.Errorf("warehouse name is required")
	}
	return nil
}

// WarehouseUpdate carries the mutable warehouse fields. The code is the
// business key stock items hang off and cannot be changed.
type WarehouseUpdate struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (wu WarehouseUpdate) Validate() error {
	if wu.Name == nil && wu.Address == nil {
		return ErrMissingInput
	}
	if wu.Name != nil && strings.TrimSpace(*wu.Name) == "" {
		return fmt.Errorf("warehouse name cannot be empty")
	}
	return nil
}

type WarehouseModel struct {
	dbConnectionPool db.DBConnectionPool
}

var (
	DefaultWarehouseSortField = SortFieldCode
	DefaultWarehouseSortOrder = SortOrderASC
	AllowedWarehouseFilters   = []FilterKey{FilterKeyCode}
	AllowedWarehouseSorts     = []SortField{SortFieldCode, SortFieldName, SortFieldCreatedAt, SortFieldUpdatedAt}
)

func (m *WarehouseModel) Get(ctx context.Context, tenantID, id string) (*Warehouse, error) {
	const query = `
		SELECT
			*
		FROM
			warehouses w
		WHERE
			w.id = $1
			AND w.tenant_id = $2
	`

	var warehouse Warehouse
	err := m.dbConnectionPool.GetContext(ctx, &warehouse, query, id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying warehouse ID %s: %w", id, err)
	}
	return &warehouse, nil
}

func (m *WarehouseModel) GetByCode(ctx context.Context, tenantID, code string) (*Warehouse, error) {
	const query = `
		SELECT
			*
		FROM
			warehouses w
		WHERE
			w.code = $1
			AND w.tenant_id = $2
	`

	var warehouse Warehouse
	err := m.dbConnectionPool.GetContext(ctx, &warehouse, query, code, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying warehouse with code %s: %w", code, err)
	}
	return &warehouse, nil
}

func (m *WarehouseModel) GetAll(ctx context.Context, tenantID string, queryParams *QueryParams) ([]Warehouse, error) {
	query, params := newWarehouseQuery("SELECT w.* FROM warehouses w", tenantID, queryParams, true, m.dbConnectionPool)

	warehouses := []Warehouse{}
	err := m.dbConnectionPool.SelectContext(ctx, &warehouses, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying warehouses: %w", err)
	}
	return warehouses, nil
}

func (m *WarehouseModel) Count(ctx context.Context, tenantID string, queryParams *QueryParams) (int, error) {
	query, params := newWarehouseQuery("SELECT COUNT(*) FROM warehouses w", tenantID, queryParams, false, m.dbConnectionPool)

	var count int
	err := m.dbConnectionPool.GetContext(ctx, &count, query, params...)
	if err != nil {
		return 0, fmt.Errorf("counting warehouses: %w", err)
	}
	return count, nil
}

func (m *WarehouseModel) Insert(ctx context.Context, insert WarehouseInsert) (*Warehouse, error) {
	if err := insert.Validate(); err != nil {
		return nil, fmt.Errorf("validating warehouse insert: %w", err)
	}

	const query = `
		INSERT INTO warehouses
			(tenant_id, code, name, address)
		VALUES
			($1, $2, $3, $4)
		RETURNING
			*
	`

	var warehouse Warehouse
	err := m.dbConnectionPool.GetContext(ctx, &warehouse, query, insert.TenantID, insert.Code, insert.Name, insert.Address)
	if err != nil {
		var pqError *pq.Error
		if errors.As(err, &pqError) && pqError.Constraint == "warehouses_tenant_id_code_key" {
			return nil, ErrWarehouseCodeAlreadyExists
		}
		return nil, fmt.Errorf("inserting warehouse: %w", err)
	}
	return &warehouse, nil
}

func (m *WarehouseModel) Update(ctx context.Context, tenantID, id string, update WarehouseUpdate) (*Warehouse, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	fields := []string{}
	args := []interface{}{}
	if update.Name != nil {
		fields = append(fields, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Address != nil {
		fields = append(fields, "address = ?")
		args = append(args, *update.Address)
	}
	fields = append(fields, "updated_at = NOW()")

	args = append(args, id, tenantID)
	query := fmt.Sprintf(`
		UPDATE
			warehouses
		SET
			%s
		WHERE
			id = ?
			AND tenant_id = ?
		RETURNING
			*
	`, strings.Join(fields, ", "))
	query = m.dbConnectionPool.Rebind(query)

	var warehouse Warehouse
	err := m.dbConnectionPool.GetContext(ctx, &warehouse, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("updating warehouse ID %s: %w", id, err)
	}
	return &warehouse, nil
}

// newWarehouseQuery generates the full query and parameters for a warehouse search query
func newWarehouseQuery(baseQuery, tenantID string, queryParams *QueryParams, paginated bool, sqlExec db.SQLExecuter) (string, []interface{}) {
	qb := NewQueryBuilder(baseQuery)
	qb.AddCondition("w.tenant_id = ?", tenantID)
	if queryParams.Filters[FilterKeyCode] != nil {
		qb.AddCondition("w.code = ?", queryParams.Filters[FilterKeyCode])
	}
	if queryParams.Query != "" {
		qb.AddCondition("(w.code ILIKE ? OR w.name ILIKE ?)", "%"+queryParams.Query+"%", "%"+queryParams.Query+"%")
	}
	if paginated {
		qb.AddSorting(queryParams.SortBy, queryParams.SortOrder, "w")
		qb.AddPagination(queryParams.Page, queryParams.PageLimit)
	}
	return qb.BuildAndRebind(sqlExec)
}
