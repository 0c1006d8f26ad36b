package tenant

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
)

var (
	ErrInvalidTenantID         = errors.New("invalid tenant id")
	ErrEmptyUpdateTenant       = errors.New("provide at least one field to be updated")
	ErrTenantDoesNotExist      = errors.New("tenant does not exist")
	ErrDuplicatedTenantID      = errors.New("a tenant with the given id already exists")
	ErrDuplicatedSchemaName    = errors.New("a tenant with a colliding schema name already exists")
	ErrInvalidStatusTransition = errors.New("invalid tenant status transition")
	ErrTenantNotDeletable      = errors.New("only INACTIVE tenants can be deleted")
)

// tenantIDRegex is the full identifier grammar: 1-50 chars out of
// [A-Za-z0-9_-]. Everything a schema name is later derived from.
var tenantIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// ParseID validates a raw tenant identifier against the identifier grammar.
func ParseID(raw string) (string, error) {
	if !tenantIDRegex.MatchString(raw) {
		return "", ErrInvalidTenantID
	}
	return raw, nil
}

type Tenant struct {
	ID                  string       `json:"id" db:"id"`
	Name                string       `json:"name" db:"name"`
	ContactName         string       `json:"contact_name" db:"contact_name"`
	ContactEmail        string       `json:"contact_email" db:"contact_email"`
	Configuration       ConfigMap    `json:"configuration" db:"configuration"`
	Status              TenantStatus `json:"status" db:"status"`
	RealmOverride       *string      `json:"realm_override" db:"realm_override"`
	SchemaName          string       `json:"schema_name" db:"schema_name"`
	EventVersion        int64        `json:"event_version" db:"event_version"`
	SchemaProvisionedAt *time.Time   `json:"schema_provisioned_at" db:"schema_provisioned_at"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt           *time.Time   `json:"deleted_at" db:"deleted_at"`
}

// IsActive reports whether the tenant participates in data-plane traffic.
func (t *Tenant) IsActive() bool {
	return t.Status == ActiveTenantStatus && t.DeletedAt == nil
}

// ConfigMap is a string-to-string configuration bag stored as JSONB.
type ConfigMap map[string]string

// Value implements the driver.Valuer interface.
func (c ConfigMap) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}

	configJSON, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("converting tenant configuration to json: %w", err)
	}
	return configJSON, nil
}

// Scan implements the sql.Scanner interface.
func (c *ConfigMap) Scan(src interface{}) error {
	if src == nil {
		*c = nil
		return nil
	}

	var configJSON []byte
	switch v := src.(type) {
	case []byte:
		configJSON = v
	case string:
		configJSON = []byte(v)
	default:
		return fmt.Errorf("unexpected type %T for tenant configuration", src)
	}

	if err := json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("unmarshaling configuration column: %w", err)
	}
	return nil
}

type TenantStatus string

const (
	PendingTenantStatus   TenantStatus = "PENDING"
	ActiveTenantStatus    TenantStatus = "ACTIVE"
	SuspendedTenantStatus TenantStatus = "SUSPENDED"
	InactiveTenantStatus  TenantStatus = "INACTIVE"
)

func (s TenantStatus) IsValid() bool {
	validStatuses := []TenantStatus{PendingTenantStatus, ActiveTenantStatus, SuspendedTenantStatus, InactiveTenantStatus}
	return slices.Contains(validStatuses, s)
}

// CanTransitionTo reports whether the status transition is allowed:
//
//	PENDING   -> ACTIVE
//	ACTIVE    -> SUSPENDED | INACTIVE
//	SUSPENDED -> ACTIVE | INACTIVE
//	INACTIVE  -> ACTIVE
func (s TenantStatus) CanTransitionTo(target TenantStatus) bool {
	switch s {
	case PendingTenantStatus:
		return target == ActiveTenantStatus
	case ActiveTenantStatus:
		return target == SuspendedTenantStatus || target == InactiveTenantStatus
	case SuspendedTenantStatus:
		return target == ActiveTenantStatus || target == InactiveTenantStatus
	case InactiveTenantStatus:
		return target == ActiveTenantStatus
	default:
		return false
	}
}

// TenantInsert is the payload for registering a new tenant.
type TenantInsert struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactName   string    `json:"contact_name"`
	ContactEmail  string    `json:"contact_email"`
	Configuration ConfigMap `json:"configuration"`
	RealmOverride *string   `json:"realm_override"`
}

func (ti TenantInsert) Validate() error {
	if _, err := ParseID(ti.ID); err != nil {
		return err
	}

	if ti.Name == "" {
		return fmt.Errorf("tenant name is required")
	}

	if ti.ContactEmail != "" {
		if err := utils.ValidateEmail(ti.ContactEmail); err != nil {
			return fmt.Errorf("invalid contact email: %w", err)
		}
	}

	return nil
}

type TenantUpdate struct {
	ID            string
	Name          *string
	ContactName   *string
	ContactEmail  *string
	Configuration ConfigMap
	RealmOverride *string
}

func (tu *TenantUpdate) Validate() error {
	if tu.ID == "" {
		return fmt.Errorf("tenant ID is required")
	}

	if tu.areAllFieldsEmpty() {
		return ErrEmptyUpdateTenant
	}

	if tu.Name != nil && *tu.Name == "" {
		return fmt.Errorf("tenant name cannot be empty")
	}

	if tu.ContactEmail != nil && *tu.ContactEmail != "" {
		if err := utils.ValidateEmail(*tu.ContactEmail); err != nil {
			return fmt.Errorf("invalid contact email: %w", err)
		}
	}

	return nil
}

func (tu *TenantUpdate) areAllFieldsEmpty() bool {
	return tu.Name == nil &&
		tu.ContactName == nil &&
		tu.ContactEmail == nil &&
		tu.Configuration == nil &&
		tu.RealmOverride == nil
}
