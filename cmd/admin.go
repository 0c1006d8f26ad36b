package cmd

import (
	"context"
	"fmt"
	"go/types"

	"github.com/spf13/cobra"

	cmdUtils "github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/admin"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	di "github.com/kumbirai/warehouse-management-system-sub005/internal/dependencyinjection"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/provisioning"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/scheduler"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/tenant"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// AdminCommand runs the tenant orchestrator: the tenant registry API, the
// outbox relay and the pending-provisioning retry loop.
type AdminCommand struct{}

func (c *AdminCommand) Command(monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := admin.ServeOptions{}
	var enableScheduler bool

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the tenant orchestrator server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8003,
			Required:    true,
		},
		{
			Name:        "throttle-requests",
			Usage:       "Number of requests allowed per IP in the throttle window",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.ThrottleRequests,
			FlagDefault: 60,
			Required:    false,
		},
		{
			Name:           "throttle-window",
			Usage:          `The throttle window, e.g. "1m".`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionDuration,
			ConfigKey:      &serveOpts.ThrottleWindow,
			FlagDefault:    "1m",
			Required:       false,
		},
		{
			Name:        "enable-scheduler",
			Usage:       "Enable the background jobs: the outbox relay and the pending-provisioning retry",
			OptType:     types.Bool,
			ConfigKey:   &enableScheduler,
			FlagDefault: true,
			Required:    false,
		},
	}
	configOpts = append(configOpts, cmdUtils.AdminAPIConfigOptions(&serveOpts.AdminAccount, &serveOpts.AdminAPIKey)...)

	// crash tracker options
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	configOpts = append(configOpts, cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType))

	// metric options
	var metricType monitor.MetricType
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "metrics-type",
			Usage:          `Metric monitor type. Options: "PROMETHEUS"`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionMetricType,
			ConfigKey:      &metricType,
			FlagDefault:    "PROMETHEUS",
			Required:       true,
		})

	// event broker options
	eventBrokerOptions := cmdUtils.EventBrokerOptions{}
	configOpts = append(configOpts, cmdUtils.EventBrokerConfigOptions(&eventBrokerOptions)...)

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Serve the tenant orchestrator API and its background jobs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.Parent().PersistentPreRun(cmd.Parent(), args)

			// Validate & ingest input parameters
			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}

			// Initializing monitor service
			metricOptions := monitor.MetricOptions{
				MetricType:  metricType,
				Environment: globalOptions.Environment,
			}
			if err = monitorService.Start(metricOptions); err != nil {
				log.Fatalf("Error creating monitor service: %s", err.Error())
			}

			// Inject crash tracker options dependencies
			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

			// Inject server dependencies
			serveOpts.Environment = globalOptions.Environment
			serveOpts.GitCommit = globalOptions.GitCommit
			serveOpts.DatabaseDSN = globalOptions.DatabaseURL
			serveOpts.Version = globalOptions.Version
			serveOpts.MonitorService = monitorService
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			// Setup the Crash Tracker client
			crashTrackerClient, err := di.NewCrashTracker(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			// Setup the Event Producer. The API handlers only append events to
			// the outbox table; the relay job is the single component talking
			// to the broker.
			eventProducer, err := di.NewEventProducer(ctx, eventBrokerOptions.EventBrokerType, cmdUtils.KafkaConfig(eventBrokerOptions))
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating event producer: %v", err)
			}
			defer eventProducer.Close(ctx)
			serveOpts.EventProducer = eventProducer

			// Starting Scheduler Service (background jobs) if enabled
			if enableScheduler {
				log.Ctx(ctx).Info("Starting Scheduler Service...")
				adminDBConnectionPool, innerErr := di.NewAdminDBConnectionPool(ctx, di.DBConnectionPoolOptions{
					DatabaseURL:    globalOptions.DatabaseURL,
					MonitorService: monitorService,
				})
				if innerErr != nil {
					log.Ctx(ctx).Fatalf("Error getting admin DB connection pool: %v", innerErr)
				}
				schedulerJobRegistrars, innerErr := getSchedulerJobRegistrars(ctx, monitorService, eventProducer)
				if innerErr != nil {
					log.Ctx(ctx).Fatalf("Error getting scheduler job registrars: %v", innerErr)
				}
				go scheduler.StartScheduler(adminDBConnectionPool, crashTrackerClient.Clone(), schedulerJobRegistrars...)
			} else {
				log.Ctx(ctx).Warn("Scheduler Service is disabled.")
			}

			// Starting Application Server
			log.Ctx(ctx).Info("Starting Tenant Orchestrator Server...")
			if err := admin.Serve(serveOpts, &admin.HTTPServer{}); err != nil {
				log.Ctx(ctx).Fatalf("Error starting tenant orchestrator server: %v", err)
			}
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

// getSchedulerJobRegistrars wires the outbox relay and the pending
// provisioning retry against the shared admin pool.
func getSchedulerJobRegistrars(ctx context.Context, monitorService monitor.MonitorServiceInterface, producer events.Producer) ([]scheduler.SchedulerJobRegisterOption, error) {
	adminDBConnectionPool, err := di.NewAdminDBConnectionPool(ctx, di.DBConnectionPoolOptions{
		DatabaseURL:    globalOptions.DatabaseURL,
		MonitorService: monitorService,
	})
	if err != nil {
		return nil, fmt.Errorf("getting admin DB connection pool in Job Scheduler: %w", err)
	}

	tenantManager := tenant.NewManager(tenant.WithDatabase(adminDBConnectionPool))
	schemaEnsurer := provisioning.NewManager(provisioning.WithDatabase(adminDBConnectionPool))

	return []scheduler.SchedulerJobRegisterOption{
		scheduler.WithOutboxRelayJobOption(tenantManager, producer),
		scheduler.WithPendingProvisioningJobOption(tenantManager, schemaEnsurer),
	}, nil
}
