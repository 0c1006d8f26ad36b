package utils

import (
	"errors"
	"strings"
)

var ErrTenantNameNotFound = errors.New("tenant name not found")

func ExtractTenantNameFromHostName(hostname string) (string, error) {
	// Remove port number if present (e.g. acme.wms.example.org:8000 -> acme.wms.example.org)
	hostname = strings.Split(hostname, ":")[0]
	// Split by dots (e.g. acme.wms.example.org -> [acme, wms, example, org])
	parts := strings.Split(hostname, ".")
	// If there's more than 2 parts, it means there's a subdomain
	if len(parts) > 2 {
		return parts[0], nil
	}
	return "", ErrTenantNameNotFound
}
