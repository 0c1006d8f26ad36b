package httphandler

import (
	"net/http"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/idp"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type LogoutHandler struct {
	IdPClient idp.ClientInterface
	Cookie    RefreshCookieOptions
}

// ServeHTTP invalidates the session at the provider on a best-effort basis
// and always clears the cookie: logout is idempotent and cannot fail from the
// client's point of view. Access tokens already in flight stay valid until
// their natural expiry.
func (h LogoutHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if cookie, err := req.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		if err = h.IdPClient.Logout(ctx, cookie.Value); err != nil {
			log.Ctx(ctx).Warnf("Logging out at the identity provider: %s", err)
		}
	}

	ClearRefreshCookie(rw, h.Cookie)
	rw.WriteHeader(http.StatusNoContent)
}
