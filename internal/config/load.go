package config

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/bbugyi200/sase-github/internal/errors"
)

// newViperInstance creates a new Viper instance with the standard sase
// configuration: SASE_ environment prefix, key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not
// found error. Missing config files are expected and fall back to defaults.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// viperDecoderOption returns the decode hooks used when unmarshaling config,
// covering time.Duration strings like "2s".
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
//  1. Environment variables (SASE_* prefix)
//  2. The merged sase config file (~/.config/sase/sase.yml)
//  3. Built-in defaults
//
// The function returns an error only for actual configuration problems, not
// for a missing config file. The context parameter is accepted for API
// consistency; config reads are fast local I/O.
func Load(_ context.Context) (*Config, error) {
	v := newViperInstance()

	path, err := MergedConfigPath()
	if err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if readErr := v.ReadInConfig(); readErr != nil && !isConfigNotFoundError(readErr) {
			// A config file that exists but cannot be parsed is a hard error.
			if !isFileMissing(readErr) {
				return nil, errors.Wrapf(readErr, "failed to read config file %s", path)
			}
		}
	}

	return unmarshalAndValidate(v)
}

// LoadFromFile reads configuration from an explicit file path, layered over
// defaults and environment variables. Used by tests and the --config flag.
func LoadFromFile(_ context.Context, path string) (*Config, error) {
	v := newViperInstance()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return unmarshalAndValidate(v)
}

// isFileMissing reports whether the read error is a plain missing-file error
// (viper returns *fs.PathError rather than ConfigFileNotFoundError when
// SetConfigFile points at a nonexistent path).
func isFileMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file")
}
