package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/services/classifier"
	"scribe/internal/services/zoom"
)

// minStagingBytes is the free-space floor for the staging disk. A two-hour
// recording plus its extracted audio stays well under this.
const minStagingBytes = 2 << 30

// CheckDirectoryAccess verifies the directory exists and is readable and
// writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has at least minBytes
// free.
func CheckDiskSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf(
			"%s (%.1f GiB free, %.1f GiB required)",
			path, float64(free)/(1<<30), float64(minBytes)/(1<<30))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))}
}

// CheckBinaries verifies the external tools the pipeline shells out to.
func CheckBinaries(cfg *config.Config) []Result {
	statuses := deps.Check(deps.Required(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if status.Found {
			detail = status.Path
		}
		results = append(results, Result{Name: status.Name, Passed: status.Found, Detail: detail})
	}
	return results
}

// CheckZoom verifies the Zoom credentials by fetching an OAuth token.
func CheckZoom(ctx context.Context, cfg *config.Config) Result {
	const name = "Zoom API"
	if err := cfg.ValidateZoom(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client := zoom.NewClient(zoom.Config{
		AccountID:    cfg.Zoom.AccountID,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		BaseURL:      cfg.Zoom.BaseURL,
		AuthURL:      cfg.Zoom.AuthURL,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "credentials valid"}
}

// CheckTranscriber verifies the transcription configuration. No ping: the
// transcription API has no cheap health endpoint, so only the key presence
// and config shape are checked.
func CheckTranscriber(cfg *config.Config) Result {
	const name = "Transcription API"
	if err := cfg.ValidateTranscriber(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckClassifier verifies the classifier API is reachable and the key is
// valid. Single attempt, no retries.
func CheckClassifier(ctx context.Context, cfg *config.Config) Result {
	const name = "Classifier API"
	if err := cfg.ValidateClassifier(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client := classifier.NewClient(classifier.Config{
		APIKey:  cfg.Classifier.APIKey,
		BaseURL: cfg.Classifier.BaseURL,
		Model:   cfg.Classifier.Model,
	}, classifier.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}
