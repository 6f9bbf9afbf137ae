package config

import (
	"github.com/spf13/viper"

	"github.com/bbugyi200/sase-github/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are the base layer that config files and environment
// variables override. Path fields default to empty and are resolved lazily
// against the user's home directory by the paths helpers.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:     constants.DefaultPoolSize,
		ProbeTimeout: constants.DefaultProbeTimeout,
	}
}

// setDefaults registers the built-in defaults on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("github_username", "")
	v.SetDefault("sase_home", "")
	v.SetDefault("workspace_root", "")
	v.SetDefault("pool_size", constants.DefaultPoolSize)
	v.SetDefault("probe_timeout", constants.DefaultProbeTimeout)
}
