package whisper

// Config captures runtime settings for transcription.
type Config struct {
	// APIKey authenticates against the transcription API.
	APIKey string
	// BaseURL overrides the API endpoint (defaults to the OpenAI API).
	BaseURL string
	// Model is the transcription model (e.g. "whisper-1").
	Model string
	// Language is an optional ISO-639-1 hint.
	Language string
	// MaxUploadMiB caps a single upload; larger audio is chunked.
	MaxUploadMiB int
	// TimeoutSeconds bounds one API request.
	TimeoutSeconds int
}

// Audio encoding constants. 64 kbps mono at 16 kHz keeps an hour of speech
// well under the upload cap without hurting recognition quality.
const (
	DefaultModel        = "whisper-1"
	DefaultMaxUploadMiB = 24
	AudioBitrate        = "64k"
	AudioSampleRate     = "16000"
	AudioCodec          = "libmp3lame"
)

// Command names for external tools.
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"
)
