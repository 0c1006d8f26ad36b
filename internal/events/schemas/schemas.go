package schemas

import "time"

// EventTenantSchemaCreatedData tells the data-plane services to provision
// their copy of the tenant schema. Consumers are idempotent; the key dedupes
// at-least-once deliveries.
type EventTenantSchemaCreatedData struct {
	TenantID       string    `json:"tenantId"`
	SchemaName     string    `json:"schemaName"`
	Version        int64     `json:"version"`
	Timestamp      time.Time `json:"timestamp"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

// EventTenantLifecycleData describes one tenant status transition.
type EventTenantLifecycleData struct {
	TenantID   string    `json:"tenantId"`
	Name       string    `json:"name"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	Version    int64     `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
}
