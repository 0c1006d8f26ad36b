package authbff

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff/idp"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/jwtverify"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	servehttphandler "github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httpjson"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/wmscontext"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/httpserver"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const ServiceID = "auth-bff"

const (
	defaultThrottleRequests = 10
	defaultThrottleWindow   = time.Minute
)

type HTTPServerInterface interface {
	Run(conf httpserver.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf httpserver.Config) {
	httpserver.Run(conf)
}

// ServeOptions configures the auth BFF: the browser-facing front for the
// identity provider. It owns the refresh cookie so the token never reaches
// frontend code.
type ServeOptions struct {
	CrashTrackerClient crashtracker.CrashTrackerClient
	CorsAllowedOrigins []string
	Environment        string
	GitCommit          string
	MonitorService     monitor.MonitorServiceInterface
	Port               int
	Version            string

	IdPBaseURL      string
	IdPRealm        string
	IdPClientID     string
	IdPClientSecret string

	JWKSURL             string
	JWKSRefreshInterval time.Duration
	TokenIssuer         string

	// RefreshCookieMaxAge bounds the cookie lifetime; zero means the default
	// of 24 hours. DisableSecureCookies is for local development only.
	RefreshCookieMaxAge  time.Duration
	DisableSecureCookies bool
	// AllowLegacyRefreshBody accepts refresh tokens from the request body
	// while the frontends migrate to the cookie.
	AllowLegacyRefreshBody bool

	// ThrottleRequests/ThrottleWindow bound the per-IP login and refresh
	// attempts. Zero values mean 10 per minute.
	ThrottleRequests int
	ThrottleWindow   time.Duration

	idpClient     idp.ClientInterface
	tokenVerifier jwtverify.VerifierInterface
}

// SetupDependencies uses the public configuration to wire the identity
// provider client and the JWKS-backed token verifier.
func (opts *ServeOptions) SetupDependencies() error {
	// Inject crash tracker options to logger
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	defer opts.CrashTrackerClient.Recover()
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	ctx := context.Background()

	if opts.ThrottleRequests <= 0 {
		opts.ThrottleRequests = defaultThrottleRequests
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = defaultThrottleWindow
	}

	idpClient, err := idp.NewClient(idp.ClientOptions{
		BaseURL:      opts.IdPBaseURL,
		Realm:        opts.IdPRealm,
		ClientID:     opts.IdPClientID,
		ClientSecret: opts.IdPClientSecret,
	})
	if err != nil {
		return fmt.Errorf("creating the identity provider client: %w", err)
	}
	opts.idpClient = idpClient

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

	return nil
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.SetupDependencies(); err != nil {
		return fmt.Errorf("starting dependencies: %w", err)
	}

	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := httpserver.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		// The write timeout must outlive the provider retry budget.
		WriteTimeout: time.Second * 40,
		IdleTimeout:  time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting WMS Auth BFF Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Stopping WMS Auth BFF Server")
		},
	}

	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(corsMiddleware(o.CorsAllowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(correlationIDMiddleware)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MetricsRequestHandler(o.MonitorService))

	cookieOptions := httphandler.RefreshCookieOptions{
		MaxAge: o.RefreshCookieMaxAge,
		Secure: !o.DisableSecureCookies,
	}

	// Credential endpoints are brute-force targets: throttle them per client
	// IP and endpoint before they reach the provider.
	throttle := httprate.Limit(
		o.ThrottleRequests,
		o.ThrottleWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(rw http.ResponseWriter, req *http.Request) {
			httperror.TooManyRequests("", nil, nil).WithErrorCode(httperror.Code429_0).Render(rw)
		}),
	)

	mux.Route("/auth", func(r chi.Router) {
		r.With(throttle).Post("/login", httphandler.LoginHandler{
			IdPClient:     o.idpClient,
			TokenVerifier: o.tokenVerifier,
			Cookie:        cookieOptions,
		}.ServeHTTP)
		r.With(throttle).Post("/refresh", httphandler.RefreshTokenHandler{
			IdPClient:       o.idpClient,
			TokenVerifier:   o.tokenVerifier,
			Cookie:          cookieOptions,
			AllowLegacyBody: o.AllowLegacyRefreshBody,
		}.PostRefreshToken)
		r.Post("/logout", httphandler.LogoutHandler{
			IdPClient: o.idpClient,
			Cookie:    cookieOptions,
		}.ServeHTTP)
		r.Get("/me", httphandler.ProfileHandler{
			TokenVerifier: o.tokenVerifier,
		}.GetProfile)
	})

	mux.Get("/health", healthHandler(o))

	return mux
}

// corsMiddleware allows the configured frontend origins. Credentials are only
// allowed together with an explicit allow-list: a wildcard plus credentials
// would let any site ride the refresh cookie.
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
// response and attached to the request logger.
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

// healthHandler reports the BFF's own health. The identity provider is not
// probed: its availability already surfaces as 502s on the auth endpoints.
func healthHandler(o ServeOptions) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		response := servehttphandler.HealthResponse{
			Status:    servehttphandler.StatusPass,
			Version:   o.Version,
			ServiceID: ServiceID,
			ReleaseID: o.GitCommit,
		}
		httpjson.RenderStatus(rw, http.StatusOK, response, httpjson.JSON)
	}
}
