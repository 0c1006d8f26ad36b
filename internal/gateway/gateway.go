package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authority"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/gateway/ratelimit"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/httpserver"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const ServiceID = "gateway"

type HTTPServerInterface interface {
	Run(conf httpserver.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf httpserver.Config) {
	httpserver.Run(conf)
}

// ServeOptions is the edge gateway configuration: the declarative route
// table, the token verification setup, the tenant authority and the shared
// rate-limit store.
type ServeOptions struct {
	CrashTrackerClient  crashtracker.CrashTrackerClient
	CorsAllowedOrigins  []string
	Environment         string
	GitCommit           string
	MonitorService      monitor.MonitorServiceInterface
	Port                int
	Version             string
	RoutesJSON          string
	JWKSURL             string
	JWKSRefreshInterval time.Duration
	TokenIssuer         string
	AuthorityBaseURL    string
	AuthorityUsername   string
	AuthorityPassword   string
	AuthorityCacheTTL   time.Duration
	RedisURL            string

	routes          *RouteTable
	proxies         map[string]http.Handler
	tokenVerifier   jwtverify.VerifierInterface
	tenantAuthority authority.ClientInterface
	redisClient     *redis.Client
	rateLimiter     *ratelimit.Limiter
}

// SetupDependencies uses the public configuration to wire the route table,
// the upstream proxies, the JWKS-backed token verifier, the tenant authority
// client and the Redis rate limiter.
func (opts *ServeOptions) SetupDependencies() error {
	// Inject crash tracker options to logger
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	defer opts.CrashTrackerClient.Recover()
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	ctx := context.Background()

	routes, err := ParseRoutes([]byte(opts.RoutesJSON))
	if err != nil {
		return fmt.Errorf("parsing the route table: %w", err)
	}
	opts.routes = routes

	opts.proxies, err = buildUpstreamProxies(routes)
	if err != nil {
		return fmt.Errorf("building the upstream proxies: %w", err)
	}

	jwksCache, err := jwtverify.NewJWKSCache(opts.JWKSURL, opts.JWKSRefreshInterval)
	if err != nil {
		return fmt.Errorf("creating the JWKS cache: %w", err)
	}
	if err = jwksCache.Start(ctx); err != nil {
		return fmt.Errorf("starting the JWKS cache: %w", err)
	}
	opts.tokenVerifier, err = jwtverify.NewVerifier(jwksCache, opts.TokenIssuer)
	if err != nil {
		return fmt.Errorf("creating the token verifier: %w", err)
	}

	opts.tenantAuthority, err = authority.NewClient(authority.ClientOptions{
		BaseURL:  opts.AuthorityBaseURL,
		Username: opts.AuthorityUsername,
		Password: opts.AuthorityPassword,
		CacheTTL: opts.AuthorityCacheTTL,
	})
	if err != nil {
		return fmt.Errorf("creating the tenant authority client: %w", err)
	}

	redisOptions, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return fmt.Errorf("parsing the rate limiter store URL: %w", err)
	}
	opts.redisClient = redis.NewClient(redisOptions)
	opts.rateLimiter = ratelimit.NewLimiter(opts.redisClient)

	return nil
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.SetupDependencies(); err != nil {
		return fmt.Errorf("starting dependencies: %w", err)
	}

	// The write timeout must outlive the slowest route, or the connection
	// dies before the upstream answers.
	writeTimeout := time.Second * 35
	for _, route := range opts.routes.Routes() {
		if t := route.Timeout() + time.Second*5; t > writeTimeout {
			writeTimeout = t
		}
	}

	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := httpserver.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        writeTimeout,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting WMS Gateway Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the rate limiter store connection...")
			if err := opts.redisClient.Close(); err != nil {
				log.Errorf("Error closing the rate limiter store connection: %s", err.Error())
			}

			log.Info("Stopping WMS Gateway Server")
		},
	}

	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	// Edge filters, outermost first. Correlation ids are bound before
	// anything that can short-circuit, so even a 401 or 429 response and its
	// log line carry one.
	mux.Use(corsMiddleware(o.CorsAllowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(correlationIDMiddleware)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MetricsRequestHandler(o.MonitorService))
	mux.Use(authenticationMiddleware(o.tokenVerifier, o.tenantAuthority))
	mux.Use(rateLimitMiddleware(o.rateLimiter, o.routes))

	mux.Get("/health", healthHandler(o))
	mux.Handle("/*", proxyHandler(o.proxies))

	return mux
}

// healthHandler reports the gateway's own health: the only stateful
// dependency at the edge is the rate-limit store.
func healthHandler(o ServeOptions) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		redisStatus, responseStatus := httphandler.StatusPass, httphandler.StatusPass
		if err := o.redisClient.Ping(req.Context()).Err(); err != nil {
			redisStatus, responseStatus = httphandler.StatusFail, httphandler.StatusFail
		}

		response := httphandler.HealthResponse{
			Status:    responseStatus,
			Version:   o.Version,
			ServiceID: ServiceID,
			ReleaseID: o.GitCommit,
			Services: map[string]httphandler.Status{
				"redis": redisStatus,
			},
		}

		if response.Status == httphandler.StatusFail {
			httpjson.RenderStatus(rw, http.StatusServiceUnavailable, response, httpjson.JSON)
			return
		}
		httpjson.RenderStatus(rw, http.StatusOK, response, httpjson.JSON)
	}
}
