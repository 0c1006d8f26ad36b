package jwtverify

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/singleflight"

	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const (
	// DefaultRefreshInterval is how often the key set is re-fetched in the
	// background. MaxRefreshInterval caps operator configuration so revoked
	// keys cannot outlive a rotation window.
	DefaultRefreshInterval = 10 * time.Minute
	MaxRefreshInterval     = 15 * time.Minute

	fetchTimeout    = 5 * time.Second
	fetchRetryDelay = 200 * time.Millisecond
)

// JWK is one JSON Web Key as served by the identity provider. RSA keys carry
// n/e, EC keys carry crv/x/y.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

// PublicKey materializes the JWK into a crypto.PublicKey usable for
// signature verification.
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecdsaPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

func (k JWK) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding RSA exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func (k JWK) ecdsaPublicKey() (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve %q", k.Crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decoding EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decoding EC y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// JWKSCache caches the identity provider's key set. Reads are lock-cheap and
// always see a complete key set; refreshes are single-flight so a burst of
// kid misses triggers one fetch, not a stampede.
type JWKSCache struct {
	jwksURL         string
	refreshInterval time.Duration
	httpClient      *http.Client

	mu   sync.RWMutex
	keys map[string]crypto.PublicKey

	refreshGroup singleflight.Group
}

func NewJWKSCache(jwksURL string, refreshInterval time.Duration) (*JWKSCache, error) {
	u, err := url.ParseRequestURI(jwksURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid JWKS URL %q", jwksURL)
	}

	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	if refreshInterval > MaxRefreshInterval {
		return nil, fmt.Errorf("JWKS refresh interval %s exceeds the maximum of %s", refreshInterval, MaxRefreshInterval)
	}

	return &JWKSCache{
		jwksURL:         jwksURL,
		refreshInterval: refreshInterval,
		httpClient:      &http.Client{Timeout: fetchTimeout},
	}, nil
}

// Start warms the cache and launches the background refresh loop, which runs
// until ctx is canceled. The initial fetch failure is fatal so a service
// never comes up unable to verify anything.
func (c *JWKSCache) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("warming JWKS cache: %w", err)
	}

	go func() {
		ticker := time.NewTicker(c.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Refresh(ctx); err != nil {
					log.Ctx(ctx).Errorf("Refreshing JWKS cache: %v", err)
				}
			}
		}
	}()

	return nil
}

// Refresh fetches the key set and swaps it in atomically. Concurrent callers
// share a single fetch.
func (c *JWKSCache) Refresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		keys, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.keys = keys
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// GetKey returns the public key for kid. On a miss it force-refreshes once:
// the kid may belong to a freshly rotated key this instance has not seen yet.
func (c *JWKSCache) GetKey(ctx context.Context, kid string) (crypto.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing JWKS after kid miss: %w", err)
	}

	c.mu.RLock()
	key, ok = c.keys[kid]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no key found for kid %q", ErrInvalidSignature, kid)
	}
	return key, nil
}

func (c *JWKSCache) fetch(ctx context.Context) (map[string]crypto.PublicKey, error) {
	var jwks JWKS
	err := retry.Do(
		func() error {
			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
			if reqErr != nil {
				return fmt.Errorf("creating JWKS request: %w", reqErr)
			}

			resp, reqErr := c.httpClient.Do(req)
			if reqErr != nil {
				return fmt.Errorf("requesting JWKS: %w", reqErr)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected JWKS response status %d", resp.StatusCode)
			}

			if reqErr = json.NewDecoder(resp.Body).Decode(&jwks); reqErr != nil {
				return fmt.Errorf("decoding JWKS document: %w", reqErr)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(fetchRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]crypto.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		key, keyErr := jwk.PublicKey()
		if keyErr != nil {
			log.Ctx(ctx).Warnf("Skipping JWK %q: %v", jwk.Kid, keyErr)
			continue
		}
		keys[jwk.Kid] = key
	}
	if len(keys) == 0 {
		return nil, errors.New("JWKS document contains no usable keys")
	}
	return keys, nil
}
