package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/gateway/ratelimit"
)

func Test_ParseRoutes(t *testing.T) {
	testCases := []struct {
		name            string
		raw             string
		wantErrContains string
	}{
		{
			name:            "returns an error for malformed JSON",
			raw:             `{not json`,
			wantErrContains: "unmarshalling the route table",
		},
		{
			name:            "returns an error for an empty table",
			raw:             `[]`,
			wantErrContains: "the route table is empty",
		},
		{
			name:            "returns an error when the prefix does not start with a slash",
			raw:             `[{"prefix": "api", "upstream": "http://ops:8000"}]`,
			wantErrContains: `prefix "api" must start with a slash`,
		},
		{
			name:            "returns an error for a non-http upstream",
			raw:             `[{"prefix": "/api", "upstream": "ftp://ops:8000"}]`,
			wantErrContains: `upstream "ftp://ops:8000" is not a valid http(s) URL`,
		},
		{
			name:            "returns an error for an upstream without a host",
			raw:             `[{"prefix": "/api", "upstream": "http://"}]`,
			wantErrContains: "is not a valid http(s) URL",
		},
		{
			name:            "returns an error for a negative stripPrefix",
			raw:             `[{"prefix": "/api", "upstream": "http://ops:8000", "stripPrefix": -1}]`,
			wantErrContains: "stripPrefix -1 must not be negative",
		},
		{
			name:            "returns an error when stripPrefix exceeds the prefix segments",
			raw:             `[{"prefix": "/api/operations", "upstream": "http://ops:8000", "stripPrefix": 3}]`,
			wantErrContains: `stripPrefix 3 exceeds the 2 segment(s) of prefix "/api/operations"`,
		},
		{
			name:            "returns an error for a negative timeout",
			raw:             `[{"prefix": "/api", "upstream": "http://ops:8000", "timeoutSeconds": -5}]`,
			wantErrContains: "timeoutSeconds -5 must not be negative",
		},
		{
			name:            "returns an error for a negative rate policy",
			raw:             `[{"prefix": "/api", "upstream": "http://ops:8000", "replenishRate": -1}]`,
			wantErrContains: `rate limit policy of prefix "/api" must not be negative`,
		},
		{
			name: "returns an error for duplicated prefixes",
			raw: `[
				{"prefix": "/api", "upstream": "http://ops:8000"},
				{"prefix": "/api/", "upstream": "http://other:8000"}
			]`,
			wantErrContains: `duplicated route prefix "/api"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRoutes([]byte(tc.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErrContains)
		})
	}

	t.Run("🎉 parses and orders routes by descending prefix length", func(t *testing.T) {
		raw := `[
			{"prefix": "/api", "upstream": "http://fallback:8000"},
			{"prefix": "/api/operations/stock-levels", "upstream": "http://stock:8000", "stripPrefix": 2, "timeoutSeconds": 60, "replenishRate": 10, "burstCapacity": 20},
			{"prefix": "/api/operations/", "upstream": "http://ops:8000", "stripPrefix": 2}
		]`

		table, err := ParseRoutes([]byte(raw))
		require.NoError(t, err)

		routes := table.Routes()
		require.Len(t, routes, 3)
		assert.Equal(t, "/api/operations/stock-levels", routes[0].Prefix)
		assert.Equal(t, "/api/operations", routes[1].Prefix, "trailing slashes are normalized away")
		assert.Equal(t, "/api", routes[2].Prefix)
	})
}

func Test_Route_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, Route{}.Timeout(), "zero means the default")
	assert.Equal(t, 60*time.Second, Route{TimeoutSeconds: 60}.Timeout())
}

func Test_Route_RateLimit(t *testing.T) {
	assert.Equal(t, ratelimit.Limit{ReplenishRate: DefaultReplenishRate, BurstCapacity: DefaultBurstCapacity}, Route{}.RateLimit())
	assert.Equal(t, ratelimit.Limit{ReplenishRate: 10, BurstCapacity: 20}, Route{ReplenishRate: 10, BurstCapacity: 20}.RateLimit())
	assert.Equal(
		t,
		ratelimit.Limit{ReplenishRate: 10, BurstCapacity: DefaultBurstCapacity},
		Route{ReplenishRate: 10}.RateLimit(),
		"missing halves of the policy fall back individually",
	)
}

func Test_RouteTable_Match(t *testing.T) {
	raw := `[
		{"prefix": "/api", "upstream": "http://fallback:8000"},
		{"prefix": "/api/operations", "upstream": "http://ops:8000"},
		{"prefix": "/api/operations/stock-levels", "upstream": "http://stock:8000"}
	]`
	table, err := ParseRoutes([]byte(raw))
	require.NoError(t, err)

	testCases := []struct {
		path         string
		wantUpstream string
		wantMatch    bool
	}{
		{path: "/api/operations/stock-levels", wantUpstream: "http://stock:8000", wantMatch: true},
		{path: "/api/operations/stock-levels/123", wantUpstream: "http://stock:8000", wantMatch: true},
		{path: "/api/operations/warehouses", wantUpstream: "http://ops:8000", wantMatch: true},
		{path: "/api/operations", wantUpstream: "http://ops:8000", wantMatch: true},
		{path: "/api/operations-v2", wantUpstream: "http://fallback:8000", wantMatch: true},
		{path: "/api", wantUpstream: "http://fallback:8000", wantMatch: true},
		{path: "/health", wantMatch: false},
		{path: "/", wantMatch: false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			route, matched := table.Match(tc.path)
			require.Equal(t, tc.wantMatch, matched)
			if tc.wantMatch {
				assert.Equal(t, tc.wantUpstream, route.Upstream)
			}
		})
	}
}

func Test_stripPathSegments(t *testing.T) {
	testCases := []struct {
		path  string
		count int
		want  string
	}{
		{path: "/api/operations/warehouses", count: 0, want: "/api/operations/warehouses"},
		{path: "/api/operations/warehouses", count: 1, want: "/operations/warehouses"},
		{path: "/api/operations/warehouses", count: 2, want: "/warehouses"},
		{path: "/api/operations/warehouses", count: 3, want: "/"},
		{path: "/api/operations/warehouses", count: 9, want: "/"},
		{path: "/", count: 1, want: "/"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, stripPathSegments(tc.path, tc.count))
		})
	}
}
