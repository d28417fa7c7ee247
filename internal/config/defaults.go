package config

const (
	defaultConfigPath        = "~/.config/fxpipe/config.toml"
	defaultArtifactDir       = "~/.local/share/fxpipe/data"
	defaultLogDir            = "~/.local/share/fxpipe/logs"
	defaultBaseCurrency      = "EUR"
	defaultSourceBaseURL     = "https://data-api.ecb.europa.eu/service/data/EXR"
	defaultTimeoutSeconds    = 30
	defaultRetryAttempts     = 3
	defaultRequestsPerSecond = 2
	defaultRefreshHours      = 24
	defaultWorkers           = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultExportFile        = "fxpipe.db"
	lockFileName             = ".fxpipe.lock"
)

// defaultCurrencies mirrors the quote currencies tracked against EUR.
var defaultCurrencies = []string{"USD", "SEK", "NOK", "DKK"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	currencies := make([]string, len(defaultCurrencies))
	copy(currencies, defaultCurrencies)
	return Config{
		Paths: Paths{
			ArtifactDir: defaultArtifactDir,
			LogDir:      defaultLogDir,
		},
		Source: Source{
			BaseCurrency:      defaultBaseCurrency,
			Currencies:        currencies,
			BaseURL:           defaultSourceBaseURL,
			TimeoutSeconds:    defaultTimeoutSeconds,
			RetryAttempts:     defaultRetryAttempts,
			RequestsPerSecond: defaultRequestsPerSecond,
			RefreshHours:      defaultRefreshHours,
		},
		Workflow: Workflow{
			Workers: defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
