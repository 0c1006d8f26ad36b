package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/sony/gobreaker"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpclient"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const (
	requestTimeout  = 2 * time.Second
	defaultCacheTTL = 10 * time.Second

	breakerConsecutiveFailures = 5
	breakerCooldown            = 30 * time.Second
)

type ClientInterface interface {
	GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error)
	GetTenantRealm(ctx context.Context, tenantID string) (string, error)
}

// Client is the gateway-side view of the tenant admin API. It sits on the
// request hot path, so lookups are bounded by a short timeout, memoized in a
// per-instance TTL cache and guarded by a circuit breaker: when the admin
// service is down the gateway degrades in microseconds instead of stalling
// every request for the full timeout.
type Client struct {
	httpClient httpclient.HTTPClientInterface
	baseURL    string
	username   string
	password   string
	cacheTTL   time.Duration
	cache      *ristretto.Cache
	breaker    *gobreaker.CircuitBreaker
}

var _ ClientInterface = (*Client)(nil)

type ClientOptions struct {
	BaseURL  string
	Username string
	Password string
	// CacheTTL bounds how stale a tenant status decision can be. Zero means
	// defaultCacheTTL.
	CacheTTL time.Duration
	// HTTPClient is swappable for tests; nil gets a client with the
	// authority timeout.
	HTTPClient httpclient.HTTPClientInterface
}

func NewClient(options ClientOptions) (*Client, error) {
	u, err := url.ParseRequestURI(options.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid authority base URL %q", options.BaseURL)
	}
	if options.Username == "" || options.Password == "" {
		return nil, fmt.Errorf("authority credentials are required")
	}

	if options.CacheTTL <= 0 {
		options.CacheTTL = defaultCacheTTL
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: requestTimeout}
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating authority cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tenant-authority",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Circuit breaker %q transitioned from %s to %s", name, from, to)
		},
	})

	return &Client{
		httpClient: options.HTTPClient,
		baseURL:    options.BaseURL,
		username:   options.Username,
		password:   options.Password,
		cacheTTL:   options.CacheTTL,
		cache:      cache,
		breaker:    breaker,
	}, nil
}

// GetTenant returns the tenant record, or (nil, nil) when the tenant does
// not exist: absence is an answer, not a failure, and must not trip the
// breaker.
func (c *Client) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	cacheKey := "tenant:" + tenantID
	if cached, found := c.cache.Get(cacheKey); found {
		if t, ok := cached.(*tenant.Tenant); ok {
			return t, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		t, fetchErr := c.fetchTenant(ctx, tenantID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting tenant %s from the authority: %w", tenantID, err)
	}

	t, _ := result.(*tenant.Tenant)
	if t != nil {
		c.cache.SetWithTTL(cacheKey, t, 1, c.cacheTTL)
		c.cache.Wait()
	}
	return t, nil
}

// GetTenantRealm returns the tenant's realm override, or the empty string
// when the tenant has none or does not exist.
func (c *Client) GetTenantRealm(ctx context.Context, tenantID string) (string, error) {
	cacheKey := "realm:" + tenantID
	if cached, found := c.cache.Get(cacheKey); found {
		if realm, ok := cached.(string); ok {
			return realm, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchTenantRealm(ctx, tenantID)
	})
	if err != nil {
		return "", fmt.Errorf("getting realm for tenant %s from the authority: %w", tenantID, err)
	}

	realm, _ := result.(string)
	c.cache.SetWithTTL(cacheKey, realm, 1, c.cacheTTL)
	c.cache.Wait()
	return realm, nil
}

func (c *Client) fetchTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	resp, err := c.get(ctx, "tenants", tenantID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var t tenant.Tenant
		if err = json.NewDecoder(resp.Body).Decode(&t); err != nil {
			return nil, fmt.Errorf("decoding tenant response: %w", err)
		}
		return &t, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected authority response status %d", resp.StatusCode)
	}
}

func (c *Client) fetchTenantRealm(ctx context.Context, tenantID string) (string, error) {
	resp, err := c.get(ctx, "tenants", tenantID, "realm")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body struct {
			Realm string `json:"realm"`
		}
		if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return "", fmt.Errorf("decoding realm response: %w", err)
		}
		return body.Realm, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected authority response status %d", resp.StatusCode)
	}
}

func (c *Client) get(ctx context.Context, pathSegments ...string) (*http.Response, error) {
	u, err := url.JoinPath(c.baseURL, pathSegments...)
	if err != nil {
		return nil, fmt.Errorf("building authority URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating authority request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", u, err)
	}
	return resp, nil
}
