package cmd

import (
	"go/types"

	"github.com/spf13/cobra"

	cmdUtils "github.com/kumbirai/warehouse-management-system-sub005/cmd/utils"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/authbff"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	di "github.com/kumbirai/warehouse-management-system-sub005/internal/dependencyinjection"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

// AuthCommand runs the auth BFF, the thin facade in front of the identity
// provider that keeps refresh tokens out of browser storage.
type AuthCommand struct{}

func (c *AuthCommand) Command(monitorService monitor.MonitorServiceInterface) *cobra.Command {
	serveOpts := authbff.ServeOptions{}
	tokenVerificationOptions := cmdUtils.TokenVerificationOptions{}

	configOpts := config.ConfigOptions{
		{
			Name:        "port",
			Usage:       "Port where the auth BFF will be listening on",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.Port,
			FlagDefault: 8001,
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
			Name:           "idp-base-url",
			Usage:          "The base URL of the identity provider.",
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionURLString,
			ConfigKey:      &serveOpts.IdPBaseURL,
			Required:       true,
		},
		{
			Name:      "idp-realm",
			Usage:     "The default identity provider realm used when a tenant has no realm override.",
			OptType:   types.String,
			ConfigKey: &serveOpts.IdPRealm,
			Required:  true,
		},
		{
			Name:      "idp-client-id",
			Usage:     "The OAuth client ID the BFF authenticates with against the identity provider.",
			OptType:   types.String,
			ConfigKey: &serveOpts.IdPClientID,
			Required:  true,
		},
		{
			Name:      "idp-client-secret",
			Usage:     "The OAuth client secret the BFF authenticates with against the identity provider.",
			OptType:   types.String,
			ConfigKey: &serveOpts.IdPClientSecret,
			Required:  true,
		},
		{
			Name:           "refresh-cookie-max-age",
			Usage:          `The lifetime of the refresh token cookie, e.g. "24h".`,
			OptType:        types.String,
			CustomSetValue: cmdUtils.SetConfigOptionDuration,
			ConfigKey:      &serveOpts.RefreshCookieMaxAge,
			FlagDefault:    "24h",
			Required:       false,
		},
		{
			Name:        "disable-secure-cookies",
			Usage:       "Drop the Secure attribute from the refresh cookie. For local development only.",
			OptType:     types.Bool,
			ConfigKey:   &serveOpts.DisableSecureCookies,
			FlagDefault: false,
			Required:    false,
		},
		{
			Name:        "allow-legacy-refresh-body",
			Usage:       "Accept refresh tokens from the request body while the frontends migrate to the cookie.",
			OptType:     types.Bool,
			ConfigKey:   &serveOpts.AllowLegacyRefreshBody,
			FlagDefault: false,
			Required:    false,
		},
		{
			Name:        "throttle-requests",
			Usage:       "Number of login and refresh attempts allowed per IP in the throttle window",
			OptType:     types.Int,
			ConfigKey:   &serveOpts.ThrottleRequests,
			FlagDefault: 10,
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
		Use:   "auth",
		Short: "Serve the authentication BFF",
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

			log.Ctx(ctx).Info("Starting Auth BFF Server...")
			if err := authbff.Serve(serveOpts, &authbff.HTTPServer{}); err != nil {
				log.Ctx(ctx).Fatalf("Error starting auth BFF server: %v", err)
			}
		},
	}
	err := configOpts.Init(cmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}
