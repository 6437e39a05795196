package config

const (
	defaultOutputDir = "~/renderlane/videos"
	defaultStateDir  = "~/.local/share/renderlane"

	defaultRemoteBaseURL       = "https://api.heygen.com"
	defaultRemoteUploadBaseURL = "https://upload.heygen.com"

	// Request timeouts mirror the remote service's observed latency: uploads
	// carry raw audio bytes and get the long timeout.
	defaultRequestTimeoutSeconds = 60
	defaultUploadTimeoutSeconds  = 180

	defaultPollIntervalSeconds   = 10
	defaultBackoffFloorSeconds   = 5
	defaultBackoffCeilingSeconds = 60
	// The remote is known to return non-JSON bodies and 5xx transiently, so
	// those failures get a larger budget than generic transport errors.
	defaultTransientBudget       = 3
	defaultServerErrorBudget     = 6
	defaultMaxJobLifetimeSeconds = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Remote: Remote{
			BaseURL:               defaultRemoteBaseURL,
			UploadBaseURL:         defaultRemoteUploadBaseURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			UploadTimeoutSeconds:  defaultUploadTimeoutSeconds,
		},
		Poller: Poller{
			IntervalSeconds:       defaultPollIntervalSeconds,
			BackoffFloorSeconds:   defaultBackoffFloorSeconds,
			BackoffCeilingSeconds: defaultBackoffCeilingSeconds,
			TransientBudget:       defaultTransientBudget,
			ServerErrorBudget:     defaultServerErrorBudget,
			MaxJobLifetimeSeconds: defaultMaxJobLifetimeSeconds,
		},
	}
}
