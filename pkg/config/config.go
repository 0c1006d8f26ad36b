// Package config implements declarative CLI configuration: each option is a
// cobra persistent flag bound to a viper key and an environment variable
// (flag `database-url` binds DATABASE_URL). Commands declare a ConfigOptions
// slice, call Init when building the command, then Require + SetValues in
// PersistentPreRun.
package config

import (
	"fmt"
	"go/types"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigOption declares a single configuration value.
type ConfigOption struct {
	// Name is the flag name, e.g. "database-url".
	Name string
	// EnvVar overrides the derived environment variable name.
	EnvVar string
	// Usage is the flag help text.
	Usage string
	// OptType is the value kind: types.String, types.Int or types.Bool.
	OptType types.BasicKind
	// CustomSetValue, when set, replaces the default coercion of the viper
	// value into ConfigKey.
	CustomSetValue func(co *ConfigOption) error
	// ConfigKey is a pointer the value is written into.
	ConfigKey interface{}
	// FlagDefault is the default flag value.
	FlagDefault interface{}
	// Required makes Require fail when the value is empty.
	Required bool
}

// ConfigOptions is a group of options initialized and resolved together.
type ConfigOptions []*ConfigOption

func (co *ConfigOption) envKey() string {
	if co.EnvVar != "" {
		return co.EnvVar
	}
	return strings.ToUpper(strings.ReplaceAll(co.Name, "-", "_"))
}

// Init registers the flag on the command and binds it to viper and to its
// environment variable.
func (co *ConfigOption) Init(cmd *cobra.Command) error {
	switch co.OptType {
	case types.String:
		def, _ := co.FlagDefault.(string)
		cmd.PersistentFlags().String(co.Name, def, co.Usage)
	case types.Int:
		def, _ := co.FlagDefault.(int)
		cmd.PersistentFlags().Int(co.Name, def, co.Usage)
	case types.Bool:
		def, _ := co.FlagDefault.(bool)
		cmd.PersistentFlags().Bool(co.Name, def, co.Usage)
	default:
		return fmt.Errorf("config option %q has unsupported type %v", co.Name, co.OptType)
	}

	if err := viper.BindPFlag(co.Name, cmd.PersistentFlags().Lookup(co.Name)); err != nil {
		return fmt.Errorf("binding flag %q: %w", co.Name, err)
	}
	if err := viper.BindEnv(co.Name, co.envKey()); err != nil {
		return fmt.Errorf("binding env var for %q: %w", co.Name, err)
	}
	return nil
}

// SetValue resolves the option from viper into ConfigKey.
func (co *ConfigOption) SetValue() error {
	if co.CustomSetValue != nil {
		if err := co.CustomSetValue(co); err != nil {
			return fmt.Errorf("custom setter for %q: %w", co.Name, err)
		}
		return nil
	}

	switch co.OptType {
	case types.String:
		key, ok := co.ConfigKey.(*string)
		if !ok {
			return fmt.Errorf("config option %q expects a *string key", co.Name)
		}
		*key = viper.GetString(co.Name)
	case types.Int:
		key, ok := co.ConfigKey.(*int)
		if !ok {
			return fmt.Errorf("config option %q expects an *int key", co.Name)
		}
		*key = viper.GetInt(co.Name)
	case types.Bool:
		key, ok := co.ConfigKey.(*bool)
		if !ok {
			return fmt.Errorf("config option %q expects a *bool key", co.Name)
		}
		*key = viper.GetBool(co.Name)
	default:
		return fmt.Errorf("config option %q has unsupported type %v", co.Name, co.OptType)
	}
	return nil
}

// Init registers every option on the command.
func (cos ConfigOptions) Init(cmd *cobra.Command) error {
	for _, co := range cos {
		if err := co.Init(cmd); err != nil {
			return err
		}
	}
	return nil
}

// RequireE returns an error naming every required option that is unset.
func (cos ConfigOptions) RequireE() error {
	missing := make([]string, 0, len(cos))
	for _, co := range cos {
		if !co.Required {
			continue
		}
		if strings.TrimSpace(viper.GetString(co.Name)) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", co.Name, co.envKey()))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config options: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Require panics when a required option is unset. Commands call it in
// PersistentPreRun, where a panic surfaces as a startup failure.
func (cos ConfigOptions) Require() {
	if err := cos.RequireE(); err != nil {
		panic(err)
	}
}

// SetValues resolves every option into its ConfigKey.
func (cos ConfigOptions) SetValues() error {
	for _, co := range cos {
		if err := co.SetValue(); err != nil {
			return err
		}
	}
	return nil
}
