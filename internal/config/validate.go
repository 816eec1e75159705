package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.ToleranceMs > 1000 {
		return errors.New("store.tolerance_ms must not exceed 1000; larger windows collapse distinct clips")
	}
	if c.Store.SweepIntervalMinutes > c.Store.MaxAgeMinutes {
		return fmt.Errorf("store.sweep_interval_minutes (%d) must not exceed store.max_age_minutes (%d)",
			c.Store.SweepIntervalMinutes, c.Store.MaxAgeMinutes)
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.MinDurationMs >= c.Extractor.MaxDurationMs {
		return errors.New("extractor.min_duration_ms must be less than extractor.max_duration_ms")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
