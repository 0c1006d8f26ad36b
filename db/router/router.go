package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// AdminSchemaName is the shared catalog schema holding the tenants table and the lifecycle outbox.
	AdminSchemaName string = "admin"

	TenantSchemaNamePrefix string = "tenant_"
	TenantSchemaNameSuffix string = "_schema"
)

// tenantSchemaNameRegex matches the only shape a tenant schema name is allowed to take. Everything that reaches a
// `CREATE SCHEMA` or `search_path` must satisfy it.
var tenantSchemaNameRegex = regexp.MustCompile(`^tenant_[a-z0-9_]+_schema$`)

var nonSchemaCharRegex = regexp.MustCompile(`[^a-z0-9_]`)

// SchemaNameForTenant derives the database schema name for a tenant identifier. The identifier is lowercased and
// every character outside [a-z0-9_] is replaced by an underscore, so the result is always a valid unquoted Postgres
// identifier. The derivation is idempotent for identifiers that already satisfy the schema charset.
func SchemaNameForTenant(tenantID string) string {
	sanitized := nonSchemaCharRegex.ReplaceAllString(strings.ToLower(tenantID), "_")
	return TenantSchemaNamePrefix + sanitized + TenantSchemaNameSuffix
}

// IsValidTenantSchemaName reports whether the given name is a well-formed tenant schema name.
func IsValidTenantSchemaName(schemaName string) bool {
	return tenantSchemaNameRegex.MatchString(schemaName)
}

// GetDSNForTenantSchema returns the database DSN for a tenant schema. It is the same as the root database DSN, but
// with the `search_path` query parameter set to the schema name, so every session opened from it resolves unqualified
// tables inside the tenant schema only.
func GetDSNForTenantSchema(dataSourceName, schemaName string) (string, error) {
	if !IsValidTenantSchemaName(schemaName) {
		return "", fmt.Errorf("schema name %q is not a valid tenant schema name", schemaName)
	}

	u, err := url.Parse(dataSourceName)
	if err != nil {
		return "", fmt.Errorf("parsing database DSN: %w", err)
	}

	q := u.Query()
	q.Set("search_path", schemaName)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// GetDSNForTenant returns the database DSN for the schema derived from the given tenant identifier.
func GetDSNForTenant(dataSourceName, tenantID string) (string, error) {
	return GetDSNForTenantSchema(dataSourceName, SchemaNameForTenant(tenantID))
}
