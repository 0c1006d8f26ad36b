package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events/schemas"
)

// Manager performs all reads and writes against the admin tenant registry.
// Every status transition is atomic: the row update, the event_version bump
// and the outbox insert happen in a single database transaction, so the relay
// can never observe an event for a state the registry does not hold.
type Manager struct {
	db db.DBConnectionPool
}

type ManagerInterface interface {
	GetAllTenants(ctx context.Context, queryParams *QueryParams) ([]Tenant, error)
	GetTenant(ctx context.Context, queryParams *QueryParams) (*Tenant, error)
	GetTenantByID(ctx context.Context, id string) (*Tenant, error)
	GetTenantByIDOrName(ctx context.Context, arg string) (*Tenant, error)
	AddTenant(ctx context.Context, insert TenantInsert) (*Tenant, error)
	UpdateTenant(ctx context.Context, tu *TenantUpdate) (*Tenant, error)
	ActivateTenant(ctx context.Context, tenantID string) (*Tenant, error)
	SuspendTenant(ctx context.Context, tenantID string) (*Tenant, error)
	DeactivateTenant(ctx context.Context, tenantID string) (*Tenant, error)
	ReactivateTenant(ctx context.Context, tenantID string) (*Tenant, error)
	SoftDeleteTenantByID(ctx context.Context, tenantID string) (*Tenant, error)
	SetSchemaProvisioned(ctx context.Context, tenantID string) (*Tenant, error)
	GetTenantsPendingProvisioning(ctx context.Context) ([]Tenant, error)
	GetDSNForTenant(ctx context.Context, tenantID string) (string, error)
	GetPendingOutboxEvents(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxEventsPublished(ctx context.Context, eventIDs []string) error
}

var _ ManagerInterface = (*Manager)(nil)

type Option func(m *Manager)

func NewManager(opts ...Option) *Manager {
	m := Manager{}
	for _, opt := range opts {
		opt(&m)
	}
	return &m
}

func WithDatabase(dbConnectionPool db.DBConnectionPool) Option {
	return func(m *Manager) {
		m.db = dbConnectionPool
	}
}

const selectTenantsQuery = "SELECT * FROM admin.tenants"

// newTenantQuery appends the WHERE clause derived from queryParams to
// baseQuery. Soft-deleted tenants are excluded unless FilterKeyIncludeDeleted
// is set.
func newTenantQuery(baseQuery string, queryParams *QueryParams, sqlExec db.SQLExecuter) (string, []interface{}) {
	if queryParams == nil {
		queryParams = &QueryParams{}
	}

	conditions := []string{}
	args := []interface{}{}

	if includeDeleted, ok := queryParams.Filters[FilterKeyIncludeDeleted].(bool); !ok || !includeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if id, ok := queryParams.Filters[FilterKeyID]; ok {
		conditions = append(conditions, "id = ?")
		args = append(args, id)
	}
	if status, ok := queryParams.Filters[FilterKeyStatus]; ok {
		conditions = append(conditions, "status = ?")
		args = append(args, status)
	}
	if nameOrID, ok := queryParams.Filters[FilterKeyNameOrID]; ok {
		conditions = append(conditions, "(id = ? OR name = ?)")
		args = append(args, nameOrID, nameOrID)
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	return sqlExec.Rebind(query), args
}

func (m *Manager) GetAllTenants(ctx context.Context, queryParams *QueryParams) ([]Tenant, error) {
	query, args := newTenantQuery(selectTenantsQuery, queryParams, m.db)

	tenants := []Tenant{}
	if err := m.db.SelectContext(ctx, &tenants, query, args...); err != nil {
		return nil, fmt.Errorf("getting all tenants: %w", err)
	}
	return tenants, nil
}

func (m *Manager) GetTenant(ctx context.Context, queryParams *QueryParams) (*Tenant, error) {
	query, args := newTenantQuery(selectTenantsQuery, queryParams, m.db)

	var t Tenant
	if err := m.db.GetContext(ctx, &t, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantDoesNotExist
		}
		return nil, fmt.Errorf("getting tenant: %w", err)
	}
	return &t, nil
}

func (m *Manager) GetTenantByID(ctx context.Context, id string) (*Tenant, error) {
	return m.GetTenant(ctx, &QueryParams{
		Filters: map[FilterKey]interface{}{FilterKeyID: id},
	})
}

// GetTenantByIDOrName resolves arg against both the id and the name column,
// so callers can accept either form of reference.
func (m *Manager) GetTenantByIDOrName(ctx context.Context, arg string) (*Tenant, error) {
	return m.GetTenant(ctx, &QueryParams{
		Filters: map[FilterKey]interface{}{FilterKeyNameOrID: arg},
	})
}

// AddTenant registers a new tenant in PENDING status with event_version 1 and
// writes the tenant-created outbox event in the same transaction.
func (m *Manager) AddTenant(ctx context.Context, insert TenantInsert) (*Tenant, error) {
	if err := insert.Validate(); err != nil {
		return nil, err
	}
	schemaName := SchemaNameForTenant(insert.ID)

	return db.RunInTransactionWithResult(ctx, m.db, nil, func(dbTx db.DBTransaction) (*Tenant, error) {
		const q = `
			INSERT INTO admin.tenants
				(id, name, contact_name, contact_email, configuration, realm_override, schema_name, status, event_version)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, 1)
			RETURNING *
		`
		var t Tenant
		err := dbTx.GetContext(ctx, &t, q,
			insert.ID, insert.Name, insert.ContactName, insert.ContactEmail,
			insert.Configuration, insert.RealmOverride, schemaName, PendingTenantStatus)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				switch pqErr.Constraint {
				case "tenants_pkey":
					return nil, ErrDuplicatedTenantID
				case "tenants_schema_name_key":
					return nil, ErrDuplicatedSchemaName
				}
			}
			return nil, fmt.Errorf("inserting tenant %s: %w", insert.ID, err)
		}

		err = insertOutboxEvent(ctx, dbTx, &t, events.TenantLifecycleTopic, events.TenantCreatedType, lifecycleEventPayload("", &t))
		if err != nil {
			return nil, err
		}

		return &t, nil
	})
}

// UpdateTenant patches the mutable tenant fields. Configuration entries are
// merged into the existing document rather than replacing it, and an empty
// RealmOverride clears the override back to the platform default.
func (m *Manager) UpdateTenant(ctx context.Context, tu *TenantUpdate) (*Tenant, error) {
	if err := tu.Validate(); err != nil {
		return nil, err
	}

	fields := []string{}
	args := []interface{}{}
	if tu.Name != nil {
		fields = append(fields, "name = ?")
		args = append(args, *tu.Name)
	}
	if tu.ContactName != nil {
		fields = append(fields, "contact_name = ?")
		args = append(args, *tu.ContactName)
	}
	if tu.ContactEmail != nil {
		fields = append(fields, "contact_email = ?")
		args = append(args, *tu.ContactEmail)
	}
	if tu.Configuration != nil {
		fields = append(fields, "configuration = configuration || ?")
		args = append(args, tu.Configuration)
	}
	if tu.RealmOverride != nil {
		if *tu.RealmOverride == "" {
			fields = append(fields, "realm_override = NULL")
		} else {
			fields = append(fields, "realm_override = ?")
			args = append(args, *tu.RealmOverride)
		}
	}
	fields = append(fields, "updated_at = NOW()")

	query := fmt.Sprintf("UPDATE admin.tenants SET %s WHERE id = ? AND deleted_at IS NULL RETURNING *", strings.Join(fields, ", "))
	args = append(args, tu.ID)

	var t Tenant
	if err := m.db.GetContext(ctx, &t, m.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantDoesNotExist
		}
		return nil, fmt.Errorf("updating tenant %s: %w", tu.ID, err)
	}
	return &t, nil
}

// ActivateTenant moves a PENDING tenant to ACTIVE. Besides the lifecycle
// event, the first activation also enqueues the tenant-schema-created event
// that triggers schema provisioning downstream.
func (m *Manager) ActivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return m.transitionStatus(ctx, tenantID, []TenantStatus{PendingTenantStatus}, ActiveTenantStatus, events.TenantActivatedType, true)
}

// SuspendTenant moves an ACTIVE tenant to SUSPENDED.
func (m *Manager) SuspendTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return m.transitionStatus(ctx, tenantID, []TenantStatus{ActiveTenantStatus}, SuspendedTenantStatus, events.TenantSuspendedType, false)
}

// DeactivateTenant moves an ACTIVE or SUSPENDED tenant to INACTIVE.
func (m *Manager) DeactivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return m.transitionStatus(ctx, tenantID, []TenantStatus{ActiveTenantStatus, SuspendedTenantStatus}, InactiveTenantStatus, events.TenantDeactivatedType, false)
}

// ReactivateTenant moves a SUSPENDED or INACTIVE tenant back to ACTIVE. The
// tenant schema already exists at this point, so no schema event is emitted.
func (m *Manager) ReactivateTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	return m.transitionStatus(ctx, tenantID, []TenantStatus{SuspendedTenantStatus, InactiveTenantStatus}, ActiveTenantStatus, events.TenantReactivatedType, false)
}

func (m *Manager) transitionStatus(
	ctx context.Context,
	tenantID string,
	allowedFrom []TenantStatus,
	target TenantStatus,
	eventType string,
	emitSchemaCreated bool,
) (*Tenant, error) {
	return db.RunInTransactionWithResult(ctx, m.db, nil, func(dbTx db.DBTransaction) (*Tenant, error) {
		var t Tenant
		const lockQuery = "SELECT * FROM admin.tenants WHERE id = $1 AND deleted_at IS NULL FOR UPDATE"
		if err := dbTx.GetContext(ctx, &t, lockQuery, tenantID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTenantDoesNotExist
			}
			return nil, fmt.Errorf("loading tenant %s for status transition: %w", tenantID, err)
		}

		fromStatus := t.Status
		if !slices.Contains(allowedFrom, fromStatus) || !fromStatus.CanTransitionTo(target) {
			return nil, fmt.Errorf("%w: cannot move tenant %s from %s to %s", ErrInvalidStatusTransition, tenantID, fromStatus, target)
		}

		const updateQuery = `
			UPDATE admin.tenants
			SET status = $2, event_version = event_version + 1, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		`
		if err := dbTx.GetContext(ctx, &t, updateQuery, tenantID, target); err != nil {
			return nil, fmt.Errorf("updating tenant %s status to %s: %w", tenantID, target, err)
		}

		err := insertOutboxEvent(ctx, dbTx, &t, events.TenantLifecycleTopic, eventType, lifecycleEventPayload(fromStatus, &t))
		if err != nil {
			return nil, err
		}

		if emitSchemaCreated {
			payload := schemas.EventTenantSchemaCreatedData{
				TenantID:       t.ID,
				SchemaName:     t.SchemaName,
				Version:        t.EventVersion,
				Timestamp:      time.Now().UTC(),
				IdempotencyKey: uuid.NewString(),
			}
			err = insertOutboxEvent(ctx, dbTx, &t, events.TenantSchemaCreatedTopic, events.TenantSchemaCreatedType, payload)
			if err != nil {
				return nil, err
			}
		}

		return &t, nil
	})
}

// SoftDeleteTenantByID marks an INACTIVE tenant as deleted. The row and the
// tenant schema are preserved for audit, they only stop being routable.
func (m *Manager) SoftDeleteTenantByID(ctx context.Context, tenantID string) (*Tenant, error) {
	const q = `
		UPDATE admin.tenants
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL
		RETURNING *
	`
	var t Tenant
	err := m.db.GetContext(ctx, &t, q, tenantID, InactiveTenantStatus)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("soft deleting tenant %s: %w", tenantID, err)
	}

	// No row matched: distinguish a missing tenant from one in the wrong status.
	if _, getErr := m.GetTenantByID(ctx, tenantID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrTenantNotDeletable
}

// SetSchemaProvisioned records that the tenant schema exists and is fully
// migrated. It is called after EnsureSchemaReady succeeds, outside the status
// transition transaction.
func (m *Manager) SetSchemaProvisioned(ctx context.Context, tenantID string) (*Tenant, error) {
	const q = `
		UPDATE admin.tenants
		SET schema_provisioned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING *
	`
	var t Tenant
	if err := m.db.GetContext(ctx, &t, q, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantDoesNotExist
		}
		return nil, fmt.Errorf("marking tenant %s schema as provisioned: %w", tenantID, err)
	}
	return &t, nil
}

// GetTenantsPendingProvisioning returns ACTIVE tenants whose schema has not
// been confirmed yet, so the provisioning job can retry them.
func (m *Manager) GetTenantsPendingProvisioning(ctx context.Context) ([]Tenant, error) {
	const q = `
		SELECT * FROM admin.tenants
		WHERE status = $1 AND schema_provisioned_at IS NULL AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	tenants := []Tenant{}
	if err := m.db.SelectContext(ctx, &tenants, q, ActiveTenantStatus); err != nil {
		return nil, fmt.Errorf("getting tenants pending provisioning: %w", err)
	}
	return tenants, nil
}

// GetDSNForTenant returns the admin DSN rewritten to pin the search_path to
// the tenant's schema.
func (m *Manager) GetDSNForTenant(ctx context.Context, tenantID string) (string, error) {
	t, err := m.GetTenantByID(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("getting tenant %s: %w", tenantID, err)
	}

	dsn, err := m.db.DSN(ctx)
	if err != nil {
		return "", fmt.Errorf("getting database DSN: %w", err)
	}

	return GetDSNForTenantSchema(dsn, t.SchemaName)
}

func lifecycleEventPayload(from TenantStatus, t *Tenant) schemas.EventTenantLifecycleData {
	return schemas.EventTenantLifecycleData{
		TenantID:   t.ID,
		Name:       t.Name,
		FromStatus: string(from),
		ToStatus:   string(t.Status),
		Version:    t.EventVersion,
		Timestamp:  time.Now().UTC(),
	}
}

func insertOutboxEvent(ctx context.Context, sqlExec db.SQLExecuter, t *Tenant, topic, eventType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling %s payload for tenant %s: %w", eventType, t.ID, err)
	}

	const q = `
		INSERT INTO admin.tenant_lifecycle_outbox
			(tenant_id, topic, event_type, event_version, payload)
		VALUES
			($1, $2, $3, $4, $5)
	`
	if _, err = sqlExec.ExecContext(ctx, q, t.ID, topic, eventType, t.EventVersion, payloadJSON); err != nil {
		return fmt.Errorf("inserting %s outbox event for tenant %s: %w", eventType, t.ID, err)
	}
	return nil
}
