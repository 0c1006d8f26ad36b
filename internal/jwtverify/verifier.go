package jwtverify

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
)

var (
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidSignature     = errors.New("invalid token signature")
	ErrExpiredToken         = errors.New("token expired")
	ErrInvalidIssuer        = errors.New("invalid token issuer")
	ErrMissingRequiredClaim = errors.New("missing required claim")
)

// AllowedAlgorithms is the asymmetric allow-list. Symmetric algorithms are
// rejected outright so a token signed with the public key bytes can never
// pass (alg confusion).
var AllowedAlgorithms = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// Claims is the access-token payload: the subject is the user id, role is a
// flat array, and tenant_id scopes every downstream request. Email and
// preferred_username are optional profile claims surfaced by the auth BFF.
type Claims struct {
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"role"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

type VerifierInterface interface {
	VerifyToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Verifier validates access tokens against the cached JWKS and the
// configured issuer.
type Verifier struct {
	jwks   *JWKSCache
	issuer string
}

var _ VerifierInterface = (*Verifier)(nil)

func NewVerifier(jwks *JWKSCache, issuer string) (*Verifier, error) {
	if jwks == nil {
		return nil, fmt.Errorf("a JWKS cache is required")
	}
	if issuer == "" {
		return nil, fmt.Errorf("an issuer is required")
	}
	return &Verifier{jwks: jwks, issuer: issuer}, nil
}

// VerifyToken checks the signature and the claim contract and returns the
// parsed claims. Every failure maps onto one of the package's sentinel
// errors so callers can log precisely while responding generically.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc(ctx), jwt.WithValidMethods(AllowedAlgorithms))
	if err != nil {
		return nil, mapValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp", ErrMissingRequiredClaim)
	}
	if claims.Issuer != v.issuer {
		return nil, ErrInvalidIssuer
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingRequiredClaim)
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant_id", ErrMissingRequiredClaim)
	}
	if _, err = tenant.ParseID(claims.TenantID); err != nil {
		return nil, fmt.Errorf("%w: tenant_id is not a valid tenant identifier", ErrMalformedToken)
	}

	return claims, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("%w: token has no kid header", ErrMalformedToken)
		}
		return v.jwks.GetKey(ctx, kid)
	}
}

func mapValidationError(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	switch {
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return ErrMalformedToken
	case vErr.Errors&jwt.ValidationErrorExpired != 0:
		return ErrExpiredToken
	case vErr.Errors&jwt.ValidationErrorSignatureInvalid != 0:
		return ErrInvalidSignature
	case vErr.Errors&jwt.ValidationErrorIssuedAt != 0:
		return fmt.Errorf("%w: token issued in the future", ErrMalformedToken)
	case vErr.Inner != nil:
		// Keyfunc failures land here already wrapped in a sentinel.
		return vErr.Inner
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
