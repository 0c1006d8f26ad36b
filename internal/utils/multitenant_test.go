package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ExtractTenantNameFromHostName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		err      error
	}{
		{"invalid", "", ErrTenantNameNotFound},
		{"", "", ErrTenantNameNotFound},
		{"acme.wms.example.org", "acme", nil},
		{"subdomain.acme.wms.example.org", "subdomain", nil},
		{"sub-domain.acme.wms.example.org", "sub-domain", nil},
		{"acme.wms.example.org:8000", "acme", nil},
	}

	for _, test := range tests {
		actualOutput, actualError := ExtractTenantNameFromHostName(test.input)
		assert.Equal(t, test.expected, actualOutput)
		assert.Equal(t, test.err, actualError)
	}
}
