package config

const (
	defaultStagingDir = "~/.local/share/scribe/staging"
	defaultArchiveDir = "~/.local/share/scribe/archive"
	defaultLogDir     = "~/.local/share/scribe/logs"

	defaultZoomBaseURL         = "https://api.zoom.us/v2"
	defaultZoomAuthURL         = "https://zoom.us/oauth/token"
	defaultZoomPageSize        = 300
	defaultZoomTimeoutSeconds  = 30
	defaultZoomDownloadTimeout = 1800

	defaultTranscriberBaseURL = "https://api.openai.com/v1"
	defaultTranscriberModel   = "whisper-1"
	defaultTranscriberTimeout = 600
	defaultMaxUploadMiB       = 24

	defaultClassifierBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierModel   = "anthropic/claude-sonnet-4"
	defaultClassifierTokens  = 2000
	defaultClassifierTimeout = 120

	defaultMatchWindowMinutes       = 15
	defaultStrictWindowMinutes      = 2
	defaultTopicSimilarityThreshold = 0.55

	defaultMaxConcurrent = 2

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
		},
		Zoom: Zoom{
			BaseURL:         defaultZoomBaseURL,
			AuthURL:         defaultZoomAuthURL,
			PageSize:        defaultZoomPageSize,
			TimeoutSeconds:  defaultZoomTimeoutSeconds,
			DownloadTimeout: defaultZoomDownloadTimeout,
		},
		Transcriber: Transcriber{
			BaseURL:        defaultTranscriberBaseURL,
			Model:          defaultTranscriberModel,
			MaxUploadMiB:   defaultMaxUploadMiB,
			TimeoutSeconds: defaultTranscriberTimeout,
		},
		Classifier: Classifier{
			BaseURL:        defaultClassifierBaseURL,
			Model:          defaultClassifierModel,
			MaxTokens:      defaultClassifierTokens,
			TimeoutSeconds: defaultClassifierTimeout,
		},
		Matching: Matching{
			WindowMinutes:            defaultMatchWindowMinutes,
			StrictWindowMinutes:      defaultStrictWindowMinutes,
			TopicSimilarityThreshold: defaultTopicSimilarityThreshold,
		},
		Workflow: Workflow{
			MaxConcurrent: defaultMaxConcurrent,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
