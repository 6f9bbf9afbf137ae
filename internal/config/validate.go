package config

import (
	"fmt"

	"github.com/bbugyi200/sase-github/internal/errors"
)

// Validate checks a Config for values the provider cannot operate with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: %w", errors.ErrEmptyValue)
	}
	if cfg.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1, got %d: %w", cfg.PoolSize, errors.ErrConfigInvalid)
	}
	if cfg.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s: %w", cfg.ProbeTimeout, errors.ErrConfigInvalid)
	}
	return nil
}
