package httphandler

import (
	"net/http"
	"strings"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type ProfileHandler struct {
	TokenVerifier jwtverify.VerifierInterface
}

// GetProfile returns the user context encoded in the bearer token.
func (h ProfileHandler) GetProfile(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	tokenString, ok := bearerToken(req)
	if !ok {
		httperror.Unauthorized("", nil, nil).WithErrorCode(httperror.Code401_0).Render(rw)
		return
	}

	claims, err := h.TokenVerifier.VerifyToken(ctx, tokenString)
	if err != nil {
		log.Ctx(ctx).WithError(err).Info("Rejecting bearer token")
		httperror.Unauthorized("", nil, nil).WithErrorCode(httperror.Code401_0).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, userContextFromClaims(claims), httpjson.JSON)
}

func bearerToken(req *http.Request) (string, bool) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
