package config

const (
	defaultOrganizeRoot         = "~/organized"
	defaultStateDir             = "~/.local/share/curator"
	defaultLogDir               = "~/.local/share/curator/logs"
	defaultRetryBaseDelayMs     = 500
	defaultRetryMaxDelayMs      = 60_000
	defaultRetryMaxAttempts     = 10
	defaultHistoryCapacity      = 100
	defaultDebounceMs           = 2000
	defaultProbeIntervalSeconds = 30
	defaultSettleChecks         = 2
	defaultCleanupMinutes       = 15
	defaultNotifyTimeout        = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OrganizeRoot: defaultOrganizeRoot,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
		},
		Routes: map[string][]string{
			"Images":    {"jpg", "jpeg", "png", "gif", "webp", "heic"},
			"Documents": {"pdf", "doc", "docx", "txt", "md", "odt"},
			"Audio":     {"mp3", "flac", "wav", "m4a", "ogg"},
			"Video":     {"mp4", "mkv", "avi", "mov", "webm"},
			"Archives":  {"zip", "tar", "gz", "7z", "rar"},
		},
		Retry: Retry{
			BaseDelayMs: defaultRetryBaseDelayMs,
			MaxDelayMs:  defaultRetryMaxDelayMs,
			MaxAttempts: defaultRetryMaxAttempts,
		},
		History: History{Capacity: defaultHistoryCapacity},
		Watcher: Watcher{
			DebounceMs:           defaultDebounceMs,
			ProbeIntervalSeconds: defaultProbeIntervalSeconds,
			SettleChecks:         defaultSettleChecks,
		},
		Cleanup: Cleanup{IntervalMinutes: defaultCleanupMinutes},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
