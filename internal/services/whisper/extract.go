package whisper

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExtractAudio strips the video track from a recording and re-encodes the
// audio as mono 16kHz MP3.
func ExtractAudio(ctx context.Context, ffmpegBinary, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", AudioSampleRate,
		"-b:a", AudioBitrate,
		"-acodec", AudioCodec,
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ExtractChunk cuts a time range out of an audio file without re-encoding.
func ExtractChunk(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error {
	if durationSec <= 0 {
		return fmt.Errorf("extract chunk: invalid duration %v", durationSec)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-i", source,
		"-c", "copy",
		dest,
	}
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg chunk: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ProbeDuration returns the duration of a media file in seconds.
func ProbeDuration(ctx context.Context, ffprobeBinary, source string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		source,
	}
	cmd := exec.CommandContext(ctx, ffprobeBinary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	value := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: parse %q: %w", value, err)
	}
	return duration, nil
}
