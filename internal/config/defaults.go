package config

const (
	defaultLogDir             = "~/.local/share/dubmux/logs"
	defaultHistoryDBPath      = "~/.local/share/dubmux/history.db"
	defaultPreferredLanguage  = "eng"
	defaultFallbackAudioIndex = 1
	defaultAutoSelectLanguage = "por"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:        defaultLogDir,
			HistoryDBPath: defaultHistoryDBPath,
		},
		Merge: Merge{
			PreferredLanguage:  defaultPreferredLanguage,
			FallbackAudioIndex: defaultFallbackAudioIndex,
			AutoSelectLanguage: defaultAutoSelectLanguage,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
