package utils

import (
	"fmt"
	"go/types"
	"time"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
)

// EventBrokerOptions groups the Kafka connection settings shared by every
// service that produces or consumes tenant events.
type EventBrokerOptions struct {
	EventBrokerType  events.EventBrokerType
	BrokerURLs       []string
	ConsumerGroupID  string
	SecurityProtocol events.KafkaSecurityProtocol
	SASLUsername     string
	SASLPassword     string
}

func EventBrokerConfigOptions(opts *EventBrokerOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:           "event-broker-type",
			Usage:          `Event broker type. Options: "KAFKA", "NONE"`,
			OptType:        types.String,
			CustomSetValue: SetConfigOptionEventBrokerType,
			ConfigKey:      &opts.EventBrokerType,
			FlagDefault:    string(events.KafkaEventBrokerType),
			Required:       true,
		},
		{
			Name:           "broker-url",
			Usage:          "List of broker URLs comma separated",
			OptType:        types.String,
			CustomSetValue: SetConfigOptionStringList,
			ConfigKey:      &opts.BrokerURLs,
			Required:       false,
		},
		{
			Name:      "consumer-group-id",
			Usage:     "Message consumer group ID",
			OptType:   types.String,
			ConfigKey: &opts.ConsumerGroupID,
			Required:  false,
		},
		{
			Name:           "kafka-security-protocol",
			Usage:          `Kafka security protocol. Options: "PLAINTEXT", "SASL_PLAINTEXT"`,
			OptType:        types.String,
			CustomSetValue: SetConfigOptionKafkaSecurityProtocol,
			ConfigKey:      &opts.SecurityProtocol,
			FlagDefault:    string(events.KafkaProtocolPlaintext),
			Required:       false,
		},
		{
			Name:      "kafka-sasl-username",
			Usage:     "Kafka SASL username, required when the security protocol is SASL_PLAINTEXT",
			OptType:   types.String,
			ConfigKey: &opts.SASLUsername,
			Required:  false,
		},
		{
			Name:      "kafka-sasl-password",
			Usage:     "Kafka SASL password, required when the security protocol is SASL_PLAINTEXT",
			OptType:   types.String,
			ConfigKey: &opts.SASLPassword,
			Required:  false,
		},
	}
}

// KafkaConfig converts the CLI-level broker options into the events package config.
func KafkaConfig(opts EventBrokerOptions) events.KafkaConfig {
	return events.KafkaConfig{
		Brokers:          opts.BrokerURLs,
		SecurityProtocol: opts.SecurityProtocol,
		SASLUsername:     opts.SASLUsername,
		SASLPassword:     opts.SASLPassword,
	}
}

func CrashTrackerTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "crash-tracker-type",
		Usage:          `Crash tracker type. Options: "SENTRY", "DRY_RUN"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionCrashTrackerType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(crashtracker.CrashTrackerTypeDryRun),
		Required:       true,
	}
}

// TokenVerificationOptions groups the JWKS settings shared by the gateway and
// the auth BFF, which both verify the identity provider's access tokens.
type TokenVerificationOptions struct {
	JWKSURL             string
	JWKSRefreshInterval time.Duration
	TokenIssuer         string
}

func TokenVerificationConfigOptions(opts *TokenVerificationOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:           "jwks-url",
			Usage:          "The JWKS endpoint of the identity provider, used to fetch the token signing keys.",
			OptType:        types.String,
			CustomSetValue: SetConfigOptionURLString,
			ConfigKey:      &opts.JWKSURL,
			Required:       true,
		},
		{
			Name:           "jwks-refresh-interval",
			Usage:          `How often the signing keys are refreshed from the JWKS endpoint, e.g. "15m".`,
			OptType:        types.String,
			CustomSetValue: SetConfigOptionDuration,
			ConfigKey:      &opts.JWKSRefreshInterval,
			FlagDefault:    "15m",
			Required:       true,
		},
		{
			Name:      "token-issuer",
			Usage:     "The expected `iss` claim of the access tokens. Tokens from any other issuer are rejected.",
			OptType:   types.String,
			ConfigKey: &opts.TokenIssuer,
			Required:  true,
		},
	}
}

type TenantRoutingOptions struct {
	All      bool
	TenantID string
}

func (o *TenantRoutingOptions) ValidateFlags() error {
	if !o.All && o.TenantID == "" {
		return fmt.Errorf(
			"invalid config. Please specify --all to run the migrations for all tenants " +
				"or specify --tenant-id to run the migrations to a specific tenant",
		)
	}
	return nil
}

// TenantRoutingConfigOptions returns the config options for routing commands that apply to all tenants or a specific tenant.
func TenantRoutingConfigOptions(opts *TenantRoutingOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:        "all",
			Usage:       "Apply the command to all tenants. Either --tenant-id or --all must be set, but the --all option will be ignored if --tenant-id is set.",
			OptType:     types.Bool,
			FlagDefault: false,
			ConfigKey:   &opts.All,
			Required:    false,
		},
		SingleTenantRoutingConfigOptions(opts),
	}
}

func SingleTenantRoutingConfigOptions(opts *TenantRoutingOptions) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "tenant-id",
		Usage:     "The tenant ID where the command will be applied.",
		OptType:   types.String,
		ConfigKey: &opts.TenantID,
		Required:  false,
	}
}

// AdminAPIConfigOptions returns the credentials the orchestrator API is
// served with and that the gateway uses to call it.
func AdminAPIConfigOptions(account, apiKey *string) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:      "admin-account",
			Usage:     "The username of the account allowed to call the tenant orchestrator API.",
			OptType:   types.String,
			ConfigKey: account,
			Required:  true,
		},
		{
			Name:      "admin-api-key",
			Usage:     "The API key for the tenant orchestrator API account.",
			OptType:   types.String,
			ConfigKey: apiKey,
			Required:  true,
		},
	}
}
