package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeExtractor()
	c.normalizeHistory()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeStore() {
	if c.Store.ToleranceMs <= 0 {
		c.Store.ToleranceMs = defaultToleranceMs
	}
	if c.Store.MaxAgeMinutes <= 0 {
		c.Store.MaxAgeMinutes = defaultMaxAgeMinutes
	}
	if c.Store.SweepIntervalMinutes <= 0 {
		c.Store.SweepIntervalMinutes = defaultSweepIntervalMinutes
	}
	if c.Store.MaxRecords <= 0 {
		c.Store.MaxRecords = defaultMaxRecords
	}
}

func (c *Config) normalizeExtractor() {
	if c.Extractor.FallbackBitrateKbps <= 0 {
		c.Extractor.FallbackBitrateKbps = defaultFallbackBitrateKbps
	}
	if c.Extractor.MinDurationMs <= 0 {
		c.Extractor.MinDurationMs = defaultMinDurationMs
	}
	if c.Extractor.MaxDurationMs <= 0 {
		c.Extractor.MaxDurationMs = defaultMaxDurationMs
	}
}

func (c *Config) normalizeHistory() {
	if c.History.RetentionDays <= 0 {
		c.History.RetentionDays = defaultHistoryRetentionDays
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
