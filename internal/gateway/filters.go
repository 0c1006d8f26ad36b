package gateway

import (
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authority"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/gateway/ratelimit"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/wmscontext"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// publicPaths are reachable without a bearer token: the endpoints that hand
// out tokens in the first place, plus the operational probes. They still get
// rate limited (keyed by client IP) and correlation-id handling.
var publicPaths = map[string]struct{}{
	"/auth/login":   {},
	"/auth/refresh": {},
	"/auth/logout":  {},
	"/health":       {},
	"/metrics":      {},
}

func isPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// corsMiddleware allows the configured origins. Credentials are only allowed
// together with an explicit allow-list: a wildcard plus credentials would let
// any site ride the user's cookies.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowCredentials := !slices.Contains(allowedOrigins, "*")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedHeaders:   []string{"*"},
		AllowedMethods:   []string{"GET", "PUT", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowCredentials: allowCredentials,
	})

	return c.Handler
}

// correlationIDMiddleware guarantees every request carries a correlation id:
// the caller's is reused, otherwise one is minted. The id is echoed on the
// response, forwarded upstream, and attached to the request logger.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		correlationID := req.Header.Get(middleware.CorrelationIDHeaderKey)
		if correlationID == "" {
			correlationID = uuid.NewString()
			req.Header.Set(middleware.CorrelationIDHeaderKey, correlationID)
		}

		ctx := wmscontext.SetCorrelationIDInContext(req.Context(), correlationID)
		ctx = log.Set(ctx, log.Ctx(ctx).WithField("correlation_id", correlationID))
		rw.Header().Set(middleware.CorrelationIDHeaderKey, correlationID)

		next.ServeHTTP(rw, req.WithContext(ctx))
	})
}

// authenticationMiddleware verifies the bearer token, enforces that the
// caller stays inside its own tenant, gates on the tenant being ACTIVE, and
// injects the identity headers the services behind the gateway trust.
// Verification failures map to the same opaque 401/403 bodies; the precise
// reason only reaches the logs.
func authenticationMiddleware(tokenVerifier jwtverify.VerifierInterface, tenantAuthority authority.ClientInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if isPublicPath(req.URL.Path) {
				// Anonymous requests must never smuggle identity headers
				// past the gateway.
				req.Header.Del(middleware.TenantHeaderKey)
				req.Header.Del(middleware.UserHeaderKey)
				req.Header.Del(middleware.RoleHeaderKey)
				next.ServeHTTP(rw, req)
				return
			}

			ctx := req.Context()

			tokenString, ok := bearerToken(req)
			if !ok {
				httperror.Unauthorized("", nil, nil).WithErrorCode(httperror.Code401_0).Render(rw)
				return
			}

			claims, err := tokenVerifier.VerifyToken(ctx, tokenString)
			if err != nil {
				log.Ctx(ctx).WithError(err).Info("Rejecting bearer token")
				httperror.Unauthorized("", nil, nil).WithErrorCode(httperror.Code401_0).Render(rw)
				return
			}

			if claims.TenantID == "" {
				httperror.Forbidden("", nil, nil).WithErrorCode(httperror.Code403_0).Render(rw)
				return
			}

			if headerTenantID := req.Header.Get(middleware.TenantHeaderKey); headerTenantID != "" && headerTenantID != claims.TenantID {
				log.Ctx(ctx).Warnf("Tenant header %q does not match the token's tenant %q", headerTenantID, claims.TenantID)
				httperror.Forbidden("", nil, nil).WithErrorCode(httperror.Code403_1).Render(rw)
				return
			}

			authorityTenant, err := tenantAuthority.GetTenant(ctx, claims.TenantID)
			if err != nil {
				// The status gate is a cached fast path; an authority outage
				// must not take token-authenticated traffic down with it.
				log.Ctx(ctx).WithError(err).Warn("Tenant authority lookup failed, skipping the status gate")
			} else if authorityTenant == nil || !authorityTenant.IsActive() {
				httperror.Forbidden("", nil, nil).WithErrorCode(httperror.Code403_0).Render(rw)
				return
			}

			req.Header.Set(middleware.TenantHeaderKey, claims.TenantID)
			req.Header.Set(middleware.UserHeaderKey, claims.Subject)
			req.Header.Set(middleware.RoleHeaderKey, strings.Join(claims.Roles, ","))

			ctx = wmscontext.SetUserIDInContext(ctx, claims.Subject)
			ctx = wmscontext.SetUserRolesInContext(ctx, claims.Roles)
			ctx = wmscontext.SetTokenInContext(ctx, tokenString)
			ctx = log.Set(ctx, log.Ctx(ctx).WithFields(log.F{
				"tenant_id": claims.TenantID,
				"user_id":   claims.Subject,
			}))

			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
}

// rateLimitMiddleware resolves the route for the request, then takes one
// token from the route's bucket: per tenant once authenticated, per client IP
// on the public paths. The resolved route rides the context to the proxy so
// matching happens exactly once.
func rateLimitMiddleware(limiter *ratelimit.Limiter, routes *RouteTable) func(http.Handler) http.Handler {
	defaultLimit := ratelimit.Limit{ReplenishRate: DefaultReplenishRate, BurstCapacity: DefaultBurstCapacity}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			limit := defaultLimit
			bucket := "gateway"
			if route, matched := routes.Match(req.URL.Path); matched {
				ctx = saveRouteInContext(ctx, route)
				limit = route.RateLimit()
				bucket = route.Prefix
			}

			subject := req.Header.Get(middleware.TenantHeaderKey)
			if subject == "" {
				subject = clientIP(req)
			}

			result, err := limiter.Take(ctx, bucket+":"+subject, limit)
			if err != nil {
				// A limiter store outage fails open.
				log.Ctx(ctx).WithError(err).Error("Rate limiter unavailable, allowing the request")
				next.ServeHTTP(rw, req.WithContext(ctx))
				return
			}

			rw.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.Allowed {
				rw.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				httperror.TooManyRequests("", nil, nil).WithErrorCode(httperror.Code429_0).Render(rw)
				return
			}

			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
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

// clientIP relies on chi's RealIP middleware having already resolved proxy
// headers into RemoteAddr.
func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
