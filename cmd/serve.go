package cmd

import (
	"context"
	"fmt"
	"go/types"

	"github.com/spf13/cobra"

	cmdUtils "github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	di "github.com/kumbirai/warehouse-management-system-sub005/internal/dependencyinjection"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events/eventhandlers"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/serve"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

type TearDownFunc func()

type ServeCommand struct{}

type ServerServiceInterface interface {
	StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface)
	StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface)
	SetupConsumers(ctx context.Context, eventBrokerOptions cmdUtils.EventBrokerOptions, serveOpts serve.ServeOptions) (TearDownFunc, error)
}

type ServerService struct{}

// Making sure that ServerService implements ServerServiceInterface
var _ ServerServiceInterface = (*ServerService)(nil)

func (s *ServerService) StartServe(opts serve.ServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.Serve(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting server: %s", err.Error())
	}
}

func (s *ServerService) StartMetricsServe(opts serve.MetricsServeOptions, httpServer serve.HTTPServerInterface) {
	err := serve.MetricsServe(opts, httpServer)
	if err != nil {
		log.Fatalf("Error starting metrics server: %s", err.Error())
	}
}

// SetupConsumers subscribes the operations service to the schema-created
// topic, so a tenant schema is materialized on this side before the router
// sends the first query to it.
func (s *ServerService) SetupConsumers(ctx context.Context, eventBrokerOptions cmdUtils.EventBrokerOptions, serveOpts serve.ServeOptions) (TearDownFunc, error) {
	adminDBConnectionPool, err := di.NewAdminDBConnectionPool(ctx, di.DBConnectionPoolOptions{
		DatabaseURL:    globalOptions.DatabaseURL,
		MonitorService: serveOpts.MonitorService,
	})
	if err != nil {
		return nil, fmt.Errorf("getting admin DB connection pool in Setup Consumers: %w", err)
	}

	schemaCreatedConsumer, err := events.NewKafkaConsumer(
		cmdUtils.KafkaConfig(eventBrokerOptions),
		events.TenantSchemaCreatedTopic,
		eventBrokerOptions.ConsumerGroupID,
		eventhandlers.NewTenantSchemaProvisioningEventHandler(eventhandlers.TenantSchemaProvisioningEventHandlerOptions{
			AdminDBConnectionPool: adminDBConnectionPool,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating Tenant Schema Created Kafka Consumer: %w", err)
	}

	eventConsumer := events.NewEventConsumer(schemaCreatedConsumer, serveOpts.EventProducer, serveOpts.CrashTrackerClient.Clone())
	go eventConsumer.Consume(ctx)

	return TearDownFunc(func() {
		if closeErr := schemaCreatedConsumer.Close(); closeErr != nil {
			log.Ctx(ctx).Errorf("closing the schema created consumer: %v", closeErr)
		}
	}), nil
}

func (c *ServeCommand) Command(serverService ServerServiceInterface, monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := serve.ServeOptions{}

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8000,
			Required:    true,
		},
		{
			Name:           "cors-allowed-origins",
			Usage:          `Cors URLs that are allowed to access the endpoints, separated by ","`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetCorsAllowedOrigins,
			ConfigKey:      &serveOpts.CorsAllowedOrigins,
			Required:       true,
		},
	}

	// crash tracker options
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}
	configOpts = append(configOpts, cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType))

	// metrics server options
	metricsServeOpts := serve.MetricsServeOptions{}
	configOpts = append(configOpts,
		&config.ConfigOption{
			Name:           "metrics-type",
			Usage:          `Metric monitor type. Options: "PROMETHEUS"`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionMetricType,
			ConfigKey:      &metricsServeOpts.MetricType,
			FlagDefault:    "PROMETHEUS",
			Required:       true,
		},
		&config.ConfigOption{
			Name:        "metrics-port",
			Usage:       "Port where the metrics server will be listening on",
			OptType:     types.Int,
			ConfigKey:   &metricsServeOpts.Port,
			FlagDefault: 8002,
			Required:    true,
		})

	// event broker options
	eventBrokerOptions := cmdUtils.EventBrokerOptions{}
	configOpts = append(configOpts, cmdUtils.EventBrokerConfigOptions(&eventBrokerOptions)...)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the warehouse operations API",
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
				MetricType:  metricsServeOpts.MetricType,
				Environment: globalOptions.Environment,
			}

			err = monitorService.Start(metricOptions)
			if err != nil {
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

			// Inject metrics server dependencies
			metricsServeOpts.MonitorService = monitorService
			metricsServeOpts.Environment = globalOptions.Environment
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			// Setup the Crash Tracker client
			crashTrackerClient, err := di.NewCrashTracker(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			// Setup the Event Producer
			eventProducer, err := di.NewEventProducer(ctx, eventBrokerOptions.EventBrokerType, cmdUtils.KafkaConfig(eventBrokerOptions))
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating event producer: %v", err)
			}
			defer eventProducer.Close(ctx)
			serveOpts.EventProducer = eventProducer

			// Kafka (background)
			if eventBrokerOptions.EventBrokerType == events.KafkaEventBrokerType {
				tearDownFunc, innerErr := serverService.SetupConsumers(ctx, eventBrokerOptions, serveOpts)
				if innerErr != nil {
					log.Fatalf("error setting up consumers: %v", innerErr)
				}
				defer tearDownFunc()
			} else {
				log.Ctx(ctx).Warn("Event Broker Type is NONE.")
			}

			// Starting Metrics Server (background job)
			log.Ctx(ctx).Info("Starting Metrics Server...")
			go serverService.StartMetricsServe(metricsServeOpts, &serve.HTTPServer{})

			// Starting Application Server
			log.Ctx(ctx).Info("Starting Operations Server...")
			serverService.StartServe(serveOpts, &serve.HTTPServer{})
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
