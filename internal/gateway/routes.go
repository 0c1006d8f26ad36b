package gateway

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/gateway/ratelimit"
)

const (
	defaultUpstreamTimeout = 30 * time.Second

	// Routes without an explicit policy still get rate limited; these
	// defaults also cover requests that match no route at all.
	DefaultReplenishRate = 100
	DefaultBurstCapacity = 200
)

// Route is one entry of the gateway's declarative route table. Requests are
// matched on the longest prefix, the configured number of leading path
// segments is stripped, and the remainder is proxied to the upstream.
type Route struct {
	Prefix         string `json:"prefix"`
	Upstream       string `json:"upstream"`
	StripPrefix    int    `json:"stripPrefix"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	ReplenishRate  int    `json:"replenishRate"`
	BurstCapacity  int    `json:"burstCapacity"`
}

// Timeout bounds one proxied round trip to the route's upstream.
func (r Route) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return defaultUpstreamTimeout
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// RateLimit is the route's token-bucket policy.
func (r Route) RateLimit() ratelimit.Limit {
	limit := ratelimit.Limit{ReplenishRate: r.ReplenishRate, BurstCapacity: r.BurstCapacity}
	if limit.ReplenishRate <= 0 {
		limit.ReplenishRate = DefaultReplenishRate
	}
	if limit.BurstCapacity <= 0 {
		limit.BurstCapacity = DefaultBurstCapacity
	}
	return limit
}

func (r Route) validate() error {
	if !strings.HasPrefix(r.Prefix, "/") {
		return fmt.Errorf("prefix %q must start with a slash", r.Prefix)
	}

	u, err := url.ParseRequestURI(r.Upstream)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream %q is not a valid http(s) URL", r.Upstream)
	}

	if r.StripPrefix < 0 {
		return fmt.Errorf("stripPrefix %d must not be negative", r.StripPrefix)
	}
	if segments := countPathSegments(r.Prefix); r.StripPrefix > segments {
		return fmt.Errorf("stripPrefix %d exceeds the %d segment(s) of prefix %q", r.StripPrefix, segments, r.Prefix)
	}

	if r.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds %d must not be negative", r.TimeoutSeconds)
	}
	if r.ReplenishRate < 0 || r.BurstCapacity < 0 {
		return fmt.Errorf("rate limit policy of prefix %q must not be negative", r.Prefix)
	}

	return nil
}

// RouteTable holds the parsed routes ordered by descending prefix length, so
// the first match is always the longest one.
type RouteTable struct {
	routes []Route
}

// ParseRoutes builds a route table from its JSON representation.
func ParseRoutes(raw []byte) (*RouteTable, error) {
	var routes []Route
	if err := json.Unmarshal(raw, &routes); err != nil {
		return nil, fmt.Errorf("unmarshalling the route table: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("the route table is empty")
	}

	seen := make(map[string]struct{}, len(routes))
	for i := range routes {
		routes[i].Prefix = normalizePrefix(routes[i].Prefix)
		if err := routes[i].validate(); err != nil {
			return nil, fmt.Errorf("invalid route %d: %w", i, err)
		}
		if _, ok := seen[routes[i].Prefix]; ok {
			return nil, fmt.Errorf("duplicated route prefix %q", routes[i].Prefix)
		}
		seen[routes[i].Prefix] = struct{}{}
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return len(routes[i].Prefix) > len(routes[j].Prefix)
	})

	return &RouteTable{routes: routes}, nil
}

// Match returns the route with the longest prefix matching path.
func (rt *RouteTable) Match(path string) (Route, bool) {
	for _, route := range rt.routes {
		if matchesPrefix(path, route.Prefix) {
			return route, true
		}
	}
	return Route{}, false
}

// Routes returns the table's routes, longest prefix first.
func (rt *RouteTable) Routes() []Route {
	return rt.routes
}

func normalizePrefix(prefix string) string {
	if len(prefix) > 1 {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return prefix
}

// matchesPrefix matches on whole path segments: "/api/operations" matches
// "/api/operations" and "/api/operations/stock-levels" but never
// "/api/operations-v2".
func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/")
}

func countPathSegments(path string) int {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// stripPathSegments removes count leading path segments:
// stripPathSegments("/api/operations/warehouses", 2) == "/warehouses".
// Stripping everything leaves the root path.
func stripPathSegments(path string, count int) string {
	if count <= 0 {
		return path
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if count >= len(segments) {
		return "/"
	}
	return "/" + strings.Join(segments[count:], "/")
}
