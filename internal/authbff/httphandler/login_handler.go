package httphandler

import (
	"fmt"
	"net/http"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/idp"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpdecode"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/validators"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) validate() *httperror.HTTPError {
	validator := validators.NewValidator()

	validator.Check(r.Username != "", "username", "username is required")
	validator.Check(r.Password != "", "password", "password is required")

	if validator.HasErrors() {
		return httperror.BadRequest("Request invalid", nil, validator.Errors)
	}

	return nil
}

type LoginHandler struct {
	IdPClient     idp.ClientInterface
	TokenVerifier jwtverify.VerifierInterface
	Cookie        RefreshCookieOptions
}

func (h LoginHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var reqBody LoginRequest
	if err := httpdecode.DecodeJSON(req, &reqBody); err != nil {
		err = fmt.Errorf("decoding the request body: %w", err)
		log.Ctx(ctx).Error(err)
		httperror.BadRequest("", err, nil).Render(rw)
		return
	}

	if err := reqBody.validate(); err != nil {
		err.Render(rw)
		return
	}

	session, err := h.IdPClient.Login(ctx, reqBody.Username, reqBody.Password)
	if err != nil {
		renderProviderError(ctx, rw, err, fmt.Sprintf("logging in user %s", utils.TruncateString(reqBody.Username, 3)))
		return
	}

	sessionResp, err := newSessionResponse(ctx, h.TokenVerifier, session)
	if err != nil {
		log.Ctx(ctx).Errorf("Rejecting the access token minted for user %s: %s", utils.TruncateString(reqBody.Username, 3), err)
		httperror.BadGateway("", err, nil).WithErrorCode(httperror.Code502_1).Render(rw)
		return
	}

	log.Ctx(ctx).Infof("[UserLogin] - Logged in user with account ID %s", sessionResp.UserContext.ID)
	SetRefreshCookie(rw, session.RefreshToken, h.Cookie)
	httpjson.RenderStatus(rw, http.StatusOK, sessionResp, httpjson.JSON)
}
