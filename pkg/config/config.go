// Package config holds the typed configuration of the debugger, loaded
// through viper from the config file, environment and flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/hitzhangjie/tcgdbg/pkg/callconv"
	"github.com/hitzhangjie/tcgdbg/pkg/logger"
)

// MissingModulePolicy what setbrk does when the named binary can't be found
type MissingModulePolicy string

const (
	UseZeroOffset MissingModulePolicy = "zero_offset"
	FailOnMissing MissingModulePolicy = "fail"
)

// Config top level configuration
type Config struct {
	Log    Log    `mapstructure:"log"`
	Bridge Bridge `mapstructure:"bridge"`
}

// Log logging options
type Log struct {
	Level string `mapstructure:"level"`
}

// Bridge names of the translator's debug helpers and address resolution options
type Bridge struct {
	QueryFunc         string              `mapstructure:"query_func"`
	PendingFunc       string              `mapstructure:"pending_func"`
	NotifyFunc        string              `mapstructure:"notify_func"`
	OutVar            string              `mapstructure:"out_var"`
	TextSection       string              `mapstructure:"text_section"`
	OnMissingModule   MissingModulePolicy `mapstructure:"on_missing_module"`
	CallingConvention string              `mapstructure:"calling_convention"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("bridge.query_func", "dbg_get_inout_pair")
	v.SetDefault("bridge.pending_func", "dbg_add_pending_bps")
	v.SetDefault("bridge.notify_func", "dbg_remove_pending_bps")
	v.SetDefault("bridge.out_var", "dbg_out")
	v.SetDefault("bridge.text_section", ".text")
	v.SetDefault("bridge.on_missing_module", string(UseZeroOffset))
	v.SetDefault("bridge.calling_convention", callconv.SysVAMD64.Name)
}

// Default returns the configuration with every default applied
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	c, _ := Load(v)
	return c
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshal config err: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks enumerated options
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %v", err)
	}

	c.Bridge.OnMissingModule = MissingModulePolicy(strings.ToLower(string(c.Bridge.OnMissingModule)))
	switch c.Bridge.OnMissingModule {
	case UseZeroOffset, FailOnMissing:
	default:
		return fmt.Errorf("invalid bridge.on_missing_module: %q, must be %s or %s",
			c.Bridge.OnMissingModule, UseZeroOffset, FailOnMissing)
	}

	if _, err := callconv.Lookup(c.Bridge.CallingConvention); err != nil {
		return fmt.Errorf("invalid bridge.calling_convention: %v", err)
	}

	for key, val := range map[string]string{
		"bridge.query_func":   c.Bridge.QueryFunc,
		"bridge.pending_func": c.Bridge.PendingFunc,
		"bridge.notify_func":  c.Bridge.NotifyFunc,
		"bridge.out_var":      c.Bridge.OutVar,
		"bridge.text_section": c.Bridge.TextSection,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	return nil
}
