package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/admin/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	servehttphandler "github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/httpserver"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const ServiceID = "tenant-orchestrator"

const (
	defaultThrottleRequests = 60
	defaultThrottleWindow   = time.Minute
)

type HTTPServerInterface interface {
	Run(conf httpserver.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf httpserver.Config) {
	httpserver.Run(conf)
}

// ServeOptions configures the tenant orchestrator API: the registry CRUD, the
// lifecycle verbs and the realm lookup, all behind basic auth.
type ServeOptions struct {
	CrashTrackerClient crashtracker.CrashTrackerClient
	DatabaseDSN        string
	Environment        string
	GitCommit          string
	MonitorService     monitor.MonitorServiceInterface
	Port               int
	Version            string
	AdminAccount       string
	AdminAPIKey        string
	EventProducer      events.Producer

	// ThrottleRequests/ThrottleWindow bound per-IP requests to the admin API.
	// Zero values mean 60 per minute.
	ThrottleRequests int
	ThrottleWindow   time.Duration

	dbConnectionPool    db.DBConnectionPool
	tenantManager       tenant.ManagerInterface
	provisioningManager tenant.SchemaEnsurer
}

// SetupDependencies uses the serve options to setup the dependencies for the server.
func (opts *ServeOptions) SetupDependencies() error {
	// Setup crash tracker:
	// Call crash tracker FlushEvents to flush buffered events before the server terminates
	defer opts.CrashTrackerClient.FlushEvents(2 * time.Second)
	// Call crash tracker Recover for recover from unhandled panics
	defer opts.CrashTrackerClient.Recover()
	// Set crash tracker LogAndReportErrors as DefaultReportErrorFunc
	httperror.SetDefaultReportErrorFunc(opts.CrashTrackerClient.LogAndReportErrors)

	ctx := context.Background()

	dbConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(ctx, opts.DatabaseDSN, opts.MonitorService)
	if err != nil {
		return fmt.Errorf("connecting to the database: %w", err)
	}
	opts.dbConnectionPool = dbConnectionPool
	opts.tenantManager = tenant.NewManager(tenant.WithDatabase(dbConnectionPool))
	opts.provisioningManager = provisioning.NewManager(provisioning.WithDatabase(dbConnectionPool))

	if opts.ThrottleRequests <= 0 {
		opts.ThrottleRequests = defaultThrottleRequests
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = defaultThrottleWindow
	}

	return nil
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	if err := opts.SetupDependencies(); err != nil {
		return fmt.Errorf("starting dependencies: %w", err)
	}

	// Start the server
	listenAddr := fmt.Sprintf(":%d", opts.Port)
	serverConfig := httpserver.Config{
		ListenAddr:          listenAddr,
		Handler:             handleHTTP(opts),
		TCPKeepAlive:        time.Minute * 3,
		ShutdownGracePeriod: time.Second * 50,
		ReadTimeout:         time.Second * 5,
		WriteTimeout:        time.Second * 35,
		IdleTimeout:         time.Minute * 2,
		OnStarting: func() {
			log.Info("Starting Tenant Orchestrator Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the Tenant Orchestrator database connection pool...")
			if err := opts.dbConnectionPool.Close(); err != nil {
				log.Errorf("error closing the database connection pool: %s", err.Error())
			}

			log.Info("Stopping Tenant Orchestrator Server")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MetricsRequestHandler(o.MonitorService))
	mux.Use(httprate.Limit(
		o.ThrottleRequests,
		o.ThrottleWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(rw http.ResponseWriter, req *http.Request) {
			httperror.TooManyRequests("", nil, nil).Render(rw)
		}),
	))

	mux.Get("/health", servehttphandler.HealthHandler{
		ReleaseID:        o.GitCommit,
		ServiceID:        ServiceID,
		Version:          o.Version,
		DBConnectionPool: o.dbConnectionPool,
		Producer:         o.EventProducer,
	}.ServeHTTP)

	// Authenticated Routes
	mux.Group(func(r chi.Router) {
		r.Use(middleware.BasicAuthMiddleware(o.AdminAccount, o.AdminAPIKey))

		r.Route("/tenants", func(r chi.Router) {
			tenantsHandler := httphandler.TenantsHandler{
				Manager:            o.tenantManager,
				SchemaEnsurer:      o.provisioningManager,
				CrashTrackerClient: o.CrashTrackerClient,
			}
			r.Get("/", tenantsHandler.GetAll)
			r.Post("/", tenantsHandler.Post)
			r.Get("/{arg}", tenantsHandler.GetByIDOrName)
			r.Patch("/{id}", tenantsHandler.Patch)
			r.Delete("/{id}", tenantsHandler.Delete)
			r.Post("/{id}/activate", tenantsHandler.Activate)
			r.Post("/{id}/suspend", tenantsHandler.Suspend)
			r.Post("/{id}/deactivate", tenantsHandler.Deactivate)
			r.Post("/{id}/reactivate", tenantsHandler.Reactivate)
			r.Get("/{id}/realm", tenantsHandler.GetRealm)
		})
	})

	return mux
}
