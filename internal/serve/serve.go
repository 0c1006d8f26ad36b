package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kumbirai/warehouse-management-system-sub005/db"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/data"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httperror"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/httphandler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve/middleware"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/httpserver"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

const ServiceID = "operations"

type HTTPServerInterface interface {
	Run(conf httpserver.Config)
}

type HTTPServer struct{}

func (h *HTTPServer) Run(conf httpserver.Config) {
	httpserver.Run(conf)
}

// ServeOptions configures the tenant-scoped operations API. The service runs
// behind the gateway and trusts the identity headers the gateway injects.
type ServeOptions struct {
	Environment           string
	GitCommit             string
	Port                  int
	Version               string
	MonitorService        monitor.MonitorServiceInterface
	DatabaseDSN           string
	adminDBConnectionPool db.DBConnectionPool
	mtnDBConnectionPool   db.DBConnectionPool
	tenantManager         tenant.ManagerInterface
	Models                *data.Models
	CorsAllowedOrigins    []string
	EventProducer         events.Producer
	CrashTrackerClient    crashtracker.CrashTrackerClient
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

	// The admin pool serves the tenant registry lookups and the health check.
	adminDBConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(ctx, opts.DatabaseDSN, opts.MonitorService)
	if err != nil {
		return fmt.Errorf("connecting to the database: %w", err)
	}
	opts.adminDBConnectionPool = adminDBConnectionPool
	opts.tenantManager = tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))

	// Request pool: queries are routed to the schema of the tenant bound to
	// the request context, provisioning the schema on first use.
	provisioningManager := provisioning.NewManager(provisioning.WithDatabase(adminDBConnectionPool))
	dataSourceRouter := tenant.NewMultiTenantDataSourceRouter(opts.tenantManager, provisioningManager)
	mtnDBConnectionPool, err := db.NewConnectionPoolWithRouter(dataSourceRouter)
	if err != nil {
		return fmt.Errorf("creating the multi-tenant connection pool: %w", err)
	}
	opts.mtnDBConnectionPool = mtnDBConnectionPool

	opts.Models, err = data.NewModels(mtnDBConnectionPool)
	if err != nil {
		return fmt.Errorf("creating models for Serve: %w", err)
	}

	return nil
}

func Serve(opts ServeOptions, httpServer HTTPServerInterface) error {
	err := opts.SetupDependencies()
	if err != nil {
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
			log.Info("Starting Operations API Server")
			log.Infof("Listening on %s", listenAddr)
		},
		OnStopping: func() {
			log.Info("Closing the database connection pools...")
			if closeErr := db.CloseConnectionPoolIfNeeded(context.Background(), opts.mtnDBConnectionPool); closeErr != nil {
				log.Errorf("error closing the multi-tenant connection pool: %s", closeErr.Error())
			}
			if closeErr := opts.adminDBConnectionPool.Close(); closeErr != nil {
				log.Errorf("error closing the admin connection pool: %s", closeErr.Error())
			}

			log.Info("Stopping Operations API Server")
		},
	}
	httpServer.Run(serverConfig)
	return nil
}

func handleHTTP(o ServeOptions) *chi.Mux {
	mux := chi.NewMux()

	// Middleware
	mux.Use(middleware.CorsMiddleware(o.CorsAllowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoverHandler)
	mux.Use(middleware.MetricsRequestHandler(o.MonitorService))
	mux.Use(middleware.TenantHeaderMiddleware(o.tenantManager))

	// Tenant-scoped routes
	mux.Group(func(r chi.Router) {
		r.Use(middleware.EnsureTenantMiddleware)

		r.Route("/warehouses", func(r chi.Router) {
			handler := httphandler.WarehousesHandler{Models: o.Models}
			r.Get("/", handler.GetWarehouses)
			r.Post("/", handler.PostWarehouses)
			r.Get("/{id}", handler.GetWarehouse)
			r.Patch("/{id}", handler.PatchWarehouse)
		})

		r.Route("/stock-levels", func(r chi.Router) {
			handler := httphandler.StockLevelsHandler{Models: o.Models}
			r.Get("/", handler.GetStockLevels)
			r.Post("/", handler.PostStockLevels)
			r.Post("/import", handler.ImportStockLevels)
			r.Get("/export", handler.ExportStockLevels)
			r.Get("/{id}", handler.GetStockLevel)
			r.Patch("/{id}", handler.PatchStockLevel)
		})

		r.Route("/movements", func(r chi.Router) {
			handler := httphandler.InventoryMovementsHandler{Models: o.Models}
			r.Get("/", handler.GetInventoryMovements)
			r.Post("/", handler.PostInventoryMovements)
			r.Get("/{id}", handler.GetInventoryMovement)
		})
	})

	mux.Get("/health", httphandler.HealthHandler{
		ReleaseID:        o.GitCommit,
		ServiceID:        ServiceID,
		Version:          o.Version,
		DBConnectionPool: o.adminDBConnectionPool,
		Producer:         o.EventProducer,
	}.ServeHTTP)

	return mux
}
