package cmd

import (
	"go/types"

	"github.com/spf13/cobra"

	cmdUtils "github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	di "github.com/kumbirai/warehouse-management-system-sub005/internal/dependencyinjection"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/gateway"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// GatewayCommand runs the edge gateway: the declarative route table, token
// verification, tenant-status enforcement and the Redis-backed rate limiter.
type GatewayCommand struct{}

func (c *GatewayCommand) Command(monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := gateway.ServeOptions{}
	tokenVerificationOptions := cmdUtils.TokenVerificationOptions{}

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the gateway will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8080,
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
		{
			Name:      "routes-json",
			Usage:     "The declarative route table as a JSON document, mapping path prefixes to upstream services.",
			OptType:   types.String,
			ConfigKey: &serveOpts.RoutesJSON,
			Required:  true,
		},
		{
			Name:           "authority-base-url",
			Usage:          "The base URL of the tenant orchestrator API, used to resolve tenant status and realms.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionURLString,
			ConfigKey:      &serveOpts.AuthorityBaseURL,
			Required:       true,
		},
		{
			Name:      "authority-username",
			Usage:     "The username used to call the tenant orchestrator API.",
			OptType:   types.String,
			ConfigKey: &serveOpts.AuthorityUsername,
			Required:  true,
		},
		{
			Name:      "authority-password",
			Usage:     "The password used to call the tenant orchestrator API.",
			OptType:   types.String,
			ConfigKey: &serveOpts.AuthorityPassword,
			Required:  true,
		},
		{
			Name:           "authority-cache-ttl",
			Usage:          `How long a resolved tenant status is cached at the edge, e.g. "30s".`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionDuration,
			ConfigKey:      &serveOpts.AuthorityCacheTTL,
			FlagDefault:    "30s",
			Required:       true,
		},
		{
			Name:        "redis-url",
			Usage:       "The URL of the Redis instance backing the distributed rate limiter.",
			OptType:     types.String,
			ConfigKey:   &serveOpts.RedisURL,
			FlagDefault: "redis://localhost:6379",
			Required:    true,
		},
	}
	configOpts = append(configOpts, cmdUtils.TokenVerificationConfigOptions(&tokenVerificationOptions)...)

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

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the edge API gateway",
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
			serveOpts.Version = globalOptions.Version
			serveOpts.MonitorService = monitorService
			serveOpts.JWKSURL = tokenVerificationOptions.JWKSURL
			serveOpts.JWKSRefreshInterval = tokenVerificationOptions.JWKSRefreshInterval
			serveOpts.TokenIssuer = tokenVerificationOptions.TokenIssuer
		},
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			// Setup the Crash Tracker client
			crashTrackerClient, err := di.NewCrashTracker(ctx, crashTrackerOptions)
			if err != nil {
				log.Ctx(ctx).Fatalf("error creating crash tracker client: %s", err.Error())
			}
			serveOpts.CrashTrackerClient = crashTrackerClient

			log.Ctx(ctx).Info("Starting Gateway Server...")
			if err := gateway.Serve(serveOpts, &gateway.HTTPServer{}); err != nil {
				log.Ctx(ctx).Fatalf("Error starting gateway server: %v", err)
			}
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
