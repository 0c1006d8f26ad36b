package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/wmscontext"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// Headers injected by the gateway after token verification. Services behind
// the gateway trust these instead of re-verifying the JWT.
const (
	TenantHeaderKey        = "tenant-id"
	UserHeaderKey          = "user-id"
	RoleHeaderKey          = "role"
	CorrelationIDHeaderKey = "correlation-id"
)

// RecoverHandler is a middleware that recovers from panics and logs the error.
func RecoverHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", r)
			}

			// No need to recover when the client has disconnected:
			if errors.Is(err, http.ErrAbortHandler) {
				panic(err)
			}

			ctx := req.Context()
			log.Ctx(ctx).WithError(err).Error(err)
			httperror.InternalError(ctx, "", err, nil).Render(rw)
		}()

		next.ServeHTTP(rw, req)
	})
}

// MetricsRequestHandler is a middleware that monitors http requests, and export the data
// to the metrics server
func MetricsRequestHandler(monitorService monitor.MonitorServiceInterface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			mw := chimiddleware.NewWrapResponseWriter(rw, req.ProtoMajor)
			then := time.Now()
			next.ServeHTTP(mw, req)

			duration := time.Since(then)

			labels := monitor.HttpRequestLabels{
				Status: fmt.Sprintf("%d", mw.Status()),
				Route:  utils.GetRoutePattern(req),
				Method: req.Method,
			}

			err := monitorService.MonitorHttpRequestDuration(duration, labels)
			if err != nil {
				log.Ctx(req.Context()).Errorf("Error trying to monitor request time: %s", err)
			}
		})
	}
}

func CorsMiddleware(corsAllowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		cors := cors.New(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedHeaders: []string{"*"},
			AllowedMethods: []string{"GET", "PUT", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		})

		return cors.Handler(next)
	}
}

// LoggingMiddleware is a middleware that logs requests to the logger.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		mw := chimiddleware.NewWrapResponseWriter(rw, req.ProtoMajor)

		reqCtx := req.Context()
		logFields := log.F{
			"method": req.Method,
			"path":   req.URL.String(),
			"req":    chimiddleware.GetReqID(reqCtx),
		}
		logCtx := log.Set(reqCtx, log.Ctx(reqCtx).WithFields(logFields))

		ctxTenant, err := tenant.GetTenantFromContext(reqCtx)
		if err != nil {
			// Tenant-unaware endpoints land here; log for auditing.
			log.Ctx(logCtx).Debug("tenant cannot be derived from context")
		}
		if ctxTenant != nil {
			logFields["tenant_id"] = ctxTenant.ID
			logCtx = log.Set(reqCtx, log.Ctx(reqCtx).WithFields(logFields))
		}

		req = req.WithContext(logCtx)

		logRequestStart(req)
		started := time.Now()

		next.ServeHTTP(mw, req)
		ended := time.Since(started)
		logRequestEnd(req, mw, ended)
	})
}

func logRequestStart(req *http.Request) {
	l := log.Ctx(req.Context()).WithFields(
		log.F{
			"subsys":    "http",
			"ip":        req.RemoteAddr,
			"host":      req.Host,
			"useragent": req.Header.Get("User-Agent"),
		},
	)

	l.Info("starting request")
}

func logRequestEnd(req *http.Request, mw chimiddleware.WrapResponseWriter, duration time.Duration) {
	l := log.Ctx(req.Context()).WithFields(log.F{
		"subsys":   "http",
		"status":   mw.Status(),
		"bytes":    mw.BytesWritten(),
		"duration": duration,
	})
	if routeContext := chi.RouteContext(req.Context()); routeContext != nil {
		l = l.WithField("route", routeContext.RoutePattern())
	}

	l.Info("finished request")
}

// TenantHeaderMiddleware is the tenant interceptor for services running
// behind the gateway: it reads the gateway-injected headers, resolves the
// tenant, and binds tenant, user, roles and correlation id to the request
// context. Health and metrics probes are exempt because they carry no
// tenant.
func TenantHeaderMiddleware(tenantManager tenant.ManagerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			if req.URL.Path == "/health" || req.URL.Path == "/metrics" {
				next.ServeHTTP(rw, req)
				return
			}

			ctx := req.Context()

			correlationID := req.Header.Get(CorrelationIDHeaderKey)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			ctx = wmscontext.SetCorrelationIDInContext(ctx, correlationID)
			rw.Header().Set(CorrelationIDHeaderKey, correlationID)
			ctx = log.Set(ctx, log.Ctx(ctx).WithField("correlation_id", correlationID))

			tenantID := strings.TrimSpace(req.Header.Get(TenantHeaderKey))
			if tenantID == "" {
				httperror.BadRequest("Tenant ID header is required", nil, nil).WithErrorCode(httperror.Code400_1).Render(rw)
				return
			}
			if _, err := tenant.ParseID(tenantID); err != nil {
				httperror.BadRequest("Invalid tenant identifier", err, nil).WithErrorCode(httperror.Code400_1).Render(rw)
				return
			}

			currentTenant, err := tenantManager.GetTenantByID(ctx, tenantID)
			if err != nil {
				if errors.Is(err, tenant.ErrTenantDoesNotExist) {
					httperror.BadRequest("Invalid tenant identifier", err, nil).WithErrorCode(httperror.Code400_1).Render(rw)
					return
				}
				httperror.InternalError(ctx, "Cannot resolve the tenant", err, nil).Render(rw)
				return
			}
			ctx = tenant.SaveTenantInContext(ctx, currentTenant)
			ctx = log.Set(ctx, log.Ctx(ctx).WithField("tenant_id", currentTenant.ID))

			if userID := req.Header.Get(UserHeaderKey); userID != "" {
				ctx = wmscontext.SetUserIDInContext(ctx, userID)
				ctx = log.Set(ctx, log.Ctx(ctx).WithField("user_id", userID))
			}
			if roleHeader := req.Header.Get(RoleHeaderKey); roleHeader != "" {
				ctx = wmscontext.SetUserRolesInContext(ctx, strings.Split(roleHeader, ","))
			}

			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	}
}

// EnsureTenantMiddleware is a middleware that ensures the tenant is in the request context.
func EnsureTenantMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		if _, err := tenant.GetTenantFromContext(ctx); err != nil {
			httperror.InternalError(ctx, "Cannot retrieve the tenant from the context", err, nil).WithErrorCode(httperror.Code500_1).Render(rw)
			return
		}

		next.ServeHTTP(rw, req)
	})
}

func BasicAuthMiddleware(adminAccount, adminApiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			if adminAccount == "" || adminApiKey == "" {
				httperror.InternalError(ctx, "Admin account and API key are not set", nil, nil).Render(rw)
				return
			}

			accountUserName, apiKey, ok := req.BasicAuth()
			if !ok {
				httperror.Unauthorized("", nil, nil).Render(rw)
				return
			}

			// Using constant time comparison to avoid timing attacks
			if accountUserName != adminAccount || subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminApiKey)) != 1 {
				httperror.Unauthorized("", nil, nil).Render(rw)
				return
			}

			next.ServeHTTP(rw, req)
		})
	}
}
