package config

const (
	defaultDataDir              = "~/.local/share/voicegrab"
	defaultLogDir               = "~/.local/share/voicegrab/logs"
	defaultAPIBind              = "127.0.0.1:7598"
	defaultToleranceMs          = 5
	defaultMaxAgeMinutes        = 60
	defaultSweepIntervalMinutes = 30
	defaultMaxRecords           = 512
	defaultFallbackBitrateKbps  = 32
	defaultMinDurationMs        = 500
	defaultMaxDurationMs        = 1_200_000
	defaultHistoryRetentionDays = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			ToleranceMs:          defaultToleranceMs,
			MaxAgeMinutes:        defaultMaxAgeMinutes,
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
			MaxRecords:           defaultMaxRecords,
		},
		Extractor: Extractor{
			FallbackBitrateKbps: defaultFallbackBitrateKbps,
			MinDurationMs:       defaultMinDurationMs,
			MaxDurationMs:       defaultMaxDurationMs,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
