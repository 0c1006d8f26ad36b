package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpclient"
)

const (
	requestTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Session is the result of a successful credential or refresh-token exchange.
// The refresh token rotates on every exchange and only ever travels in the
// cookie, never in a response body.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type ClientInterface interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Client talks to the direct-grant endpoints of an OpenID Connect realm.
// Transport failures and 5xx responses are retried a bounded number of times
// with backoff; 4xx responses are authoritative answers and never retried.
type Client struct {
	httpClient   httpclient.HTTPClientInterface
	tokenURL     string
	logoutURL    string
	clientID     string
	clientSecret string
	maxAttempts  uint
}

var _ ClientInterface = (*Client)(nil)

type ClientOptions struct {
	BaseURL string
	Realm   string
	// ClientID identifies this BFF at the provider. ClientSecret is empty for
	// public clients.
	ClientID     string
	ClientSecret string
	// HTTPClient is swappable for tests; nil gets a client with the provider
	// timeout.
	HTTPClient httpclient.HTTPClientInterface
	// MaxAttempts bounds the retries on transport failures. Zero means
	// defaultMaxAttempts.
	MaxAttempts uint
}

func NewClient(options ClientOptions) (*Client, error) {
	u, err := url.ParseRequestURI(options.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid identity provider base URL %q", options.BaseURL)
	}
	if options.Realm == "" {
		return nil, fmt.Errorf("an identity provider realm is required")
	}
	if options.ClientID == "" {
		return nil, fmt.Errorf("an identity provider client ID is required")
	}

	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if options.MaxAttempts == 0 {
		options.MaxAttempts = defaultMaxAttempts
	}

	realmURL, err := url.JoinPath(options.BaseURL, "realms", options.Realm, "protocol", "openid-connect")
	if err != nil {
		return nil, fmt.Errorf("building the realm URL: %w", err)
	}

	return &Client{
		httpClient:   options.HTTPClient,
		tokenURL:     realmURL + "/token",
		logoutURL:    realmURL + "/logout",
		clientID:     options.ClientID,
		clientSecret: options.ClientSecret,
		maxAttempts:  options.MaxAttempts,
	}, nil
}

// Login exchanges the user credentials for a session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
		"scope":      {"openid"},
	}

	session, err := c.exchange(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchanging credentials: %w", err)
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new session. The provider enforces
// single use, so a token that already rotated comes back as an invalid grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	session, err := c.exchange(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchanging the refresh token: %w", err)
	}
	return session, nil
}

// Logout asks the provider to invalidate the refresh token's session.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"refresh_token": {refreshToken},
	}

	err := c.withRetries(ctx, func() error {
		return c.postLogout(ctx, form)
	})
	if err != nil {
		return fmt.Errorf("invalidating the refresh token: %w", err)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, form url.Values) (*Session, error) {
	var session *Session
	err := c.withRetries(ctx, func() error {
		s, postErr := c.postToken(ctx, form)
		if postErr != nil {
			return postErr
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// withRetries retries provider outages with exponential backoff. Anything
// that is not an outage is an authoritative answer and stops the loop.
func (c *Client) withRetries(ctx context.Context, operation func() error) error {
	return retry.Do(
		func() error {
			err := operation()
			if err != nil && !errors.Is(err, ErrProviderUnavailable) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(c.maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*Session, error) {
	resp, err := c.postForm(ctx, c.tokenURL, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body tokenResponse
		if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding the token response: %w", err)
		}
		if body.AccessToken == "" || body.RefreshToken == "" {
			return nil, fmt.Errorf("the token response is missing tokens")
		}
		return &Session{
			AccessToken:  body.AccessToken,
			RefreshToken: body.RefreshToken,
			ExpiresIn:    time.Duration(body.ExpiresIn) * time.Second,
		}, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: response status %d", ErrProviderUnavailable, resp.StatusCode)
	default:
		return nil, mapGrantError(resp)
	}
}

func (c *Client) postLogout(ctx context.Context, form url.Values) error {
	resp, err := c.postForm(ctx, c.logoutURL, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: response status %d", ErrProviderUnavailable, resp.StatusCode)
	default:
		return mapGrantError(resp)
	}
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	form.Set("client_id", c.clientID)
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating the provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return resp, nil
}

// mapGrantError translates the provider's OAuth error body. Wrong user and
// wrong password are indistinguishable on purpose; a disabled account is the
// only grant failure callers may treat differently.
func mapGrantError(resp *http.Response) error {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if strings.Contains(strings.ToLower(body.ErrorDescription), "disabled") {
		return ErrAccountDisabled
	}
	return fmt.Errorf("%w: response status %d", ErrInvalidCredentials, resp.StatusCode)
}
