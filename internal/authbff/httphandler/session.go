package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/idp"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// UserContext is the profile slice of the access token that frontends render.
type UserContext struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenantId"`
	Roles    []string `json:"roles"`
}

// SessionResponse is the login and refresh response body. The refresh token
// is deliberately absent: it only travels in the cookie.
type SessionResponse struct {
	AccessToken string      `json:"accessToken"`
	UserContext UserContext `json:"userContext"`
	ExpiresIn   int64       `json:"expiresIn"`
}

// newSessionResponse verifies the freshly minted access token before handing
// it to the client: a token the gateway would reject is a provider fault and
// must fail here, not on the user's next request.
func newSessionResponse(ctx context.Context, verifier jwtverify.VerifierInterface, session *idp.Session) (*SessionResponse, error) {
	claims, err := verifier.VerifyToken(ctx, session.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("verifying the minted access token: %w", err)
	}

	return &SessionResponse{
		AccessToken: session.AccessToken,
		UserContext: userContextFromClaims(claims),
		ExpiresIn:   int64(session.ExpiresIn.Seconds()),
	}, nil
}

func userContextFromClaims(claims *jwtverify.Claims) UserContext {
	return UserContext{
		ID:       claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		TenantID: claims.TenantID,
		Roles:    claims.Roles,
	}
}

// renderProviderError maps the provider sentinels onto the public contract:
// credential problems are a generic 401, a disabled account a 403, and
// everything else a 502. Bodies stay generic; the detail goes to the log.
func renderProviderError(ctx context.Context, rw http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, idp.ErrInvalidCredentials):
		log.Ctx(ctx).Infof("%s: %s", logMsg, err)
		httperror.Unauthorized("", err, nil).WithErrorCode(httperror.Code401_0).Render(rw)
	case errors.Is(err, idp.ErrAccountDisabled):
		log.Ctx(ctx).Warnf("%s: %s", logMsg, err)
		httperror.Forbidden("", err, nil).WithErrorCode(httperror.Code403_2).Render(rw)
	default:
		log.Ctx(ctx).WithError(err).Errorf("%s: %s", logMsg, err)
		httperror.BadGateway("", err, nil).WithErrorCode(httperror.Code502_0).Render(rw)
	}
}
