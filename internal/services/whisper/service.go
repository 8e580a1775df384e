package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/services"
	"scribe/internal/transcript"
)

const defaultHTTPTimeout = 5 * time.Minute

// Service turns a downloaded recording into a timestamped transcript.
// Audio extraction and chunk splitting run through ffmpeg; the actual
// speech-to-text call goes to the OpenAI transcription API.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	ffprobeBinary string
	httpClient    *http.Client
	extractAudio  func(ctx context.Context, ffmpegBinary, source, dest string) error
	extractChunk  func(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error
	probeDuration func(ctx context.Context, ffprobeBinary, source string) (float64, error)
}

// Option customizes the service.
type Option func(*Service)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithCommandRunners overrides the ffmpeg/ffprobe wrappers (for tests).
func WithCommandRunners(
	extractAudio func(ctx context.Context, ffmpegBinary, source, dest string) error,
	extractChunk func(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error,
	probeDuration func(ctx context.Context, ffprobeBinary, source string) (float64, error),
) Option {
	return func(s *Service) {
		if extractAudio != nil {
			s.extractAudio = extractAudio
		}
		if extractChunk != nil {
			s.extractChunk = extractChunk
		}
		if probeDuration != nil {
			s.probeDuration = probeDuration
		}
	}
}

// NewService creates a transcription service.
func NewService(cfg Config, ffmpegBinary, ffprobeBinary string, opts ...Option) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if ffprobeBinary == "" {
		ffprobeBinary = FFprobeCommand
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxUploadMiB <= 0 {
		cfg.MaxUploadMiB = DefaultMaxUploadMiB
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	svc := &Service{
		cfg:           cfg,
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		httpClient:    &http.Client{Timeout: timeout},
		extractAudio:  ExtractAudio,
		extractChunk:  ExtractChunk,
		probeDuration: ProbeDuration,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Transcribe converts a media file into a normalized transcript. workDir
// holds the extracted audio and any chunk files; callers own cleanup.
func (s *Service) Transcribe(ctx context.Context, source, workDir string) (transcript.Transcript, error) {
	var out transcript.Transcript
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return out, services.Wrap(services.ErrConfiguration, "whisper", "transcribe",
			"transcription api key required", nil)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return out, fmt.Errorf("transcribe: ensure workDir: %w", err)
	}

	audioPath := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".mp3")
	if err := s.extractAudio(ctx, s.ffmpegBinary, source, audioPath); err != nil {
		return out, services.Wrap(services.ErrExternalTool, "whisper", "extract",
			"audio extraction failed", err)
	}

	chunks, err := s.splitForUpload(ctx, audioPath, workDir)
	if err != nil {
		return out, err
	}

	for _, chunk := range chunks {
		part, err := s.transcribeFile(ctx, chunk.path)
		if err != nil {
			return out, err
		}
		for _, span := range part.Spans {
			span.Start += chunk.offset
			span.End += chunk.offset
			out.Spans = append(out.Spans, span)
		}
		out.Duration += part.Duration
		if out.Language == "" {
			out.Language = part.Language
		}
	}
	out.Spans = transcript.Normalize(out.Spans)
	out.Text = transcript.PlainText(out.Spans)
	return out, nil
}

type audioChunk struct {
	path   string
	offset float64
}

// splitForUpload returns the audio as one chunk when it fits under the
// upload cap, otherwise cuts it into equal time slices sized from the
// bytes-per-second ratio.
func (s *Service) splitForUpload(ctx context.Context, audioPath, workDir string) ([]audioChunk, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: stat audio: %w", err)
	}
	limit := int64(s.cfg.MaxUploadMiB) * 1 << 20
	if info.Size() <= limit {
		return []audioChunk{{path: audioPath}}, nil
	}

	duration, err := s.probeDuration(ctx, s.ffprobeBinary, audioPath)
	if err != nil || duration <= 0 {
		return nil, services.Wrap(services.ErrExternalTool, "whisper", "split",
			"cannot determine audio duration for chunking", err)
	}
	parts := int(info.Size()/limit) + 1
	chunkSeconds := duration / float64(parts)

	chunks := make([]audioChunk, 0, parts)
	for i := 0; i < parts; i++ {
		offset := float64(i) * chunkSeconds
		length := chunkSeconds
		if i == parts-1 {
			length = duration - offset
		}
		chunkPath := filepath.Join(workDir, fmt.Sprintf("chunk_%02d%s", i, filepath.Ext(audioPath)))
		if err := s.extractChunk(ctx, s.ffmpegBinary, audioPath, offset, length, chunkPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "whisper", "split",
				"audio chunking failed", err)
		}
		chunks = append(chunks, audioChunk{path: chunkPath, offset: offset})
	}
	return chunks, nil
}

type verboseTranscription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (s *Service) transcribeFile(ctx context.Context, path string) (transcript.Transcript, error) {
	var out transcript.Transcript

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return out, fmt.Errorf("transcribe: build form: %w", err)
	}
	audio, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("transcribe: open audio: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		audio.Close()
		return out, fmt.Errorf("transcribe: read audio: %w", err)
	}
	audio.Close()
	writer.WriteField("model", s.cfg.Model)
	writer.WriteField("response_format", "verbose_json")
	if s.cfg.Language != "" {
		writer.WriteField("language", s.cfg.Language)
	}
	if err := writer.Close(); err != nil {
		return out, fmt.Errorf("transcribe: finish form: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return out, fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return out, services.Wrap(services.ErrTransient, "whisper", "transcribe",
			"transcription request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("transcribe: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrExternalTool
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			marker = services.ErrConfiguration
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			marker = services.ErrTransient
		}
		return out, services.Wrap(marker, "whisper", "transcribe",
			fmt.Sprintf("transcription api returned http %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(payload))))
	}

	var parsed verboseTranscription
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return out, fmt.Errorf("transcribe: decode response: %w", err)
	}
	out.Text = parsed.Text
	out.Language = parsed.Language
	out.Duration = parsed.Duration
	for _, seg := range parsed.Segments {
		out.Spans = append(out.Spans, transcript.Span{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
	}
	return out, nil
}
