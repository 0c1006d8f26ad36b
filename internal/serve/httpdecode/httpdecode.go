// Package httpdecode provides helpers for decoding HTTP request bodies.
package httpdecode

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DecodeJSON decodes the JSON request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
