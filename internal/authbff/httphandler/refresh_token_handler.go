package httphandler

import (
	"fmt"
	"net/http"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/idp"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpdecode"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// RefreshTokenRequest is the transitional body fallback for clients that have
// not migrated to the cookie yet.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenHandler struct {
	IdPClient     idp.ClientInterface
	TokenVerifier jwtverify.VerifierInterface
	Cookie        RefreshCookieOptions
	// AllowLegacyBody accepts the refresh token from the request body while
	// the frontends migrate to the cookie. Ships enabled for one deprecation
	// window.
	AllowLegacyBody bool
}

func (h RefreshTokenHandler) PostRefreshToken(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	refreshToken, err := h.refreshTokenFromRequest(req)
	if err != nil {
		log.Ctx(ctx).Infof("Rejecting a refresh request: %s", err)
		httperror.Unauthorized("", err, nil).WithErrorCode(httperror.Code401_0).Render(rw)
		return
	}

	// Concurrent refreshes with the same token need no coordination here: the
	// provider's single-use policy lets exactly one exchange win.
	session, err := h.IdPClient.Refresh(ctx, refreshToken)
	if err != nil {
		renderProviderError(ctx, rw, err, "refreshing a session")
		return
	}

	sessionResp, err := newSessionResponse(ctx, h.TokenVerifier, session)
	if err != nil {
		log.Ctx(ctx).Errorf("Rejecting the refreshed access token: %s", err)
		httperror.BadGateway("", err, nil).WithErrorCode(httperror.Code502_1).Render(rw)
		return
	}

	// Rotation: the exchange invalidated the old token, so the cookie must be
	// replaced before the response leaves.
	SetRefreshCookie(rw, session.RefreshToken, h.Cookie)
	httpjson.RenderStatus(rw, http.StatusOK, sessionResp, httpjson.JSON)
}

// refreshTokenFromRequest prefers the cookie. The body is a deprecated
// fallback that ships disabled once the frontends finish migrating.
func (h RefreshTokenHandler) refreshTokenFromRequest(req *http.Request) (string, error) {
	cookie, err := req.Cookie(RefreshCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	if h.AllowLegacyBody {
		var reqBody RefreshTokenRequest
		if decodeErr := httpdecode.DecodeJSON(req, &reqBody); decodeErr == nil && reqBody.RefreshToken != "" {
			return reqBody.RefreshToken, nil
		}
	}

	return "", fmt.Errorf("no refresh token in the request")
}
