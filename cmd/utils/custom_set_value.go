package utils

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/kumbirai/warehouse-management-system-sub005/internal/crashtracker"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/events"
	"github.com/kumbirai/warehouse-management-system-sub005/internal/monitor"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/config"
	"github.com/kumbirai/warehouse-management-system-sub005/pkg/log"
)

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	// parse string to logLevel object
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level: %w", err)
	}

	// update the configKey
	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("configKey has an invalid type %T", co.ConfigKey)
	}
	*key = logLevel

	log.DefaultLogger.SetLevel(*key)
	return nil
}

func SetConfigOptionMetricType(co *config.ConfigOption) error {
	metricType := viper.GetString(co.Name)

	metricTypeParsed, err := monitor.ParseMetricType(metricType)
	if err != nil {
		return fmt.Errorf("couldn't parse metric type: %w", err)
	}

	*(co.ConfigKey.(*monitor.MetricType)) = metricTypeParsed
	return nil
}

func SetConfigOptionCrashTrackerType(co *config.ConfigOption) error {
	ctType := viper.GetString(co.Name)

	ctTypeParsed, err := crashtracker.ParseCrashTrackerType(ctType)
	if err != nil {
		return fmt.Errorf("couldn't parse crash tracker type: %w", err)
	}

	*(co.ConfigKey.(*crashtracker.CrashTrackerType)) = ctTypeParsed
	return nil
}

func SetConfigOptionEventBrokerType(co *config.ConfigOption) error {
	ebType := viper.GetString(co.Name)

	ebTypeParsed, err := events.ParseEventBrokerType(ebType)
	if err != nil {
		return fmt.Errorf("couldn't parse event broker type: %w", err)
	}

	*(co.ConfigKey.(*events.EventBrokerType)) = ebTypeParsed
	return nil
}

func SetConfigOptionKafkaSecurityProtocol(co *config.ConfigOption) error {
	protocol := viper.GetString(co.Name)

	protocolParsed, err := events.ParseKafkaSecurityProtocol(protocol)
	if err != nil {
		return fmt.Errorf("couldn't parse kafka security protocol: %w", err)
	}

	*(co.ConfigKey.(*events.KafkaSecurityProtocol)) = protocolParsed
	return nil
}

func SetCorsAllowedOrigins(co *config.ConfigOption) error {
	corsAllowedOriginsOptions := viper.GetString(co.Name)

	if corsAllowedOriginsOptions == "" {
		return fmt.Errorf("cors allowed addresses cannot be empty")
	}

	corsAllowedOrigins := strings.Split(corsAllowedOriginsOptions, ",")

	// validate addresses
	for _, address := range corsAllowedOrigins {
		_, err := url.ParseRequestURI(address)
		if err != nil {
			return fmt.Errorf("error parsing cors addresses: %w", err)
		}
		if address == "*" {
			log.Warn(`The value "*" for the CORS Allowed Origins is too permissive and not recommended.`)
		}
	}

	key, ok := co.ConfigKey.(*[]string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string slice, but got a %T instead", co.ConfigKey)
	}
	*key = corsAllowedOrigins

	return nil
}

func SetConfigOptionURLString(co *config.ConfigOption) error {
	u := viper.GetString(co.Name)

	if u == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	_, err := url.ParseRequestURI(u)
	if err != nil {
		return fmt.Errorf("error parsing URL: %w", err)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string, but got a %T instead", co.ConfigKey)
	}
	*key = u

	return nil
}

// SetConfigOptionDuration parses a Go duration string such as "30s" or "5m".
func SetConfigOptionDuration(co *config.ConfigOption) error {
	durationStr := viper.GetString(co.Name)

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return fmt.Errorf("couldn't parse duration %q: %w", durationStr, err)
	}
	if duration < 0 {
		return fmt.Errorf("duration %q cannot be negative", durationStr)
	}

	key, ok := co.ConfigKey.(*time.Duration)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a duration, but got a %T instead", co.ConfigKey)
	}
	*key = duration

	return nil
}

// SetConfigOptionStringList splits a comma-separated value, trimming spaces
// and dropping empty entries.
func SetConfigOptionStringList(co *config.ConfigOption) error {
	listStr := viper.GetString(co.Name)

	entries := []string{}
	for _, entry := range strings.Split(listStr, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			entries = append(entries, entry)
		}
	}

	key, ok := co.ConfigKey.(*[]string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string slice, but got a %T instead", co.ConfigKey)
	}
	*key = entries

	return nil
}
