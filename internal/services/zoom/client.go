// Package zoom talks to the Zoom cloud recording API.
//
// Authentication uses the server-to-server OAuth account-credentials grant;
// tokens are cached until shortly before expiry. Recording UUIDs may contain
// '/' and must be double URL-encoded in request paths.
package zoom

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scribe/internal/resolve"
	"scribe/internal/services"
	"scribe/internal/textutil"
)

const (
	defaultBaseURL     = "https://api.zoom.us/v2"
	defaultAuthURL     = "https://zoom.us/oauth/token"
	defaultHTTPTimeout = 30 * time.Second
	defaultPageSize    = 300
	tokenExpirySlack   = 60 * time.Second
)

// Config captures the runtime settings required to talk to Zoom.
type Config struct {
	AccountID       string
	ClientID        string
	ClientSecret    string
	UserID          string
	BaseURL         string
	AuthURL         string
	PageSize        int
	TimeoutSeconds  int
	DownloadTimeout int
}

// Client wraps the Zoom cloud recording API.
type Client struct {
	cfg            Config
	httpClient     *http.Client
	downloadClient *http.Client

	mu         sync.Mutex
	token      string
	tokenUntil time.Time
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithDownloadClient overrides the HTTP client used for media downloads.
func WithDownloadClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.downloadClient = client
		}
	}
}

// WithClock overrides the time source (useful for token expiry tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a Zoom client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	downloadTimeout := 10 * time.Minute
	if cfg.DownloadTimeout > 0 {
		downloadTimeout = time.Duration(cfg.DownloadTimeout) * time.Second
	}
	client := &Client{
		cfg: Config{
			AccountID:       strings.TrimSpace(cfg.AccountID),
			ClientID:        strings.TrimSpace(cfg.ClientID),
			ClientSecret:    strings.TrimSpace(cfg.ClientSecret),
			UserID:          strings.TrimSpace(cfg.UserID),
			BaseURL:         strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			AuthURL:         strings.TrimSpace(cfg.AuthURL),
			PageSize:        cfg.PageSize,
			TimeoutSeconds:  cfg.TimeoutSeconds,
			DownloadTimeout: cfg.DownloadTimeout,
		},
		httpClient:     &http.Client{Timeout: timeout},
		downloadClient: &http.Client{Timeout: downloadTimeout},
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.AuthURL == "" {
		client.cfg.AuthURL = defaultAuthURL
	}
	if client.cfg.UserID == "" {
		client.cfg.UserID = "me"
	}
	if client.cfg.PageSize <= 0 || client.cfg.PageSize > defaultPageSize {
		client.cfg.PageSize = defaultPageSize
	}
	return client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cache is empty or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenUntil) {
		return c.token, nil
	}
	if c.cfg.AccountID == "" || c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", services.Wrap(services.ErrConfiguration, "zoom", "auth",
			"zoom credentials missing", nil)
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", c.cfg.AccountID)
	endpoint := c.cfg.AuthURL + "?" + form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("zoom auth: new request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "zoom", "auth", "token request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("zoom auth: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			marker = services.ErrConfiguration
		}
		return "", services.Wrap(marker, "zoom", "auth",
			fmt.Sprintf("token request returned http %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(body))))
	}
	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("zoom auth: decode response: %w", err)
	}
	if token.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, "zoom", "auth",
			"token response missing access_token", nil)
	}
	c.token = token.AccessToken
	c.tokenUntil = c.now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenExpirySlack)
	return c.token, nil
}

type recordingFile struct {
	ID            string `json:"id"`
	FileType      string `json:"file_type"`
	FileExtension string `json:"file_extension"`
	FileSize      int64  `json:"file_size"`
	RecordingType string `json:"recording_type"`
	DownloadURL   string `json:"download_url"`
}

type meetingRecording struct {
	UUID           string          `json:"uuid"`
	ID             json.Number     `json:"id"`
	Topic          string          `json:"topic"`
	StartTime      time.Time       `json:"start_time"`
	Duration       int             `json:"duration"`
	ShareURL       string          `json:"share_url"`
	RecordingFiles []recordingFile `json:"recording_files"`
}

type recordingsPage struct {
	NextPageToken string             `json:"next_page_token"`
	Meetings      []meetingRecording `json:"meetings"`
}

// ListRecordings fetches all cloud recordings for the configured user in the
// given date range, following pagination.
func (c *Client) ListRecordings(ctx context.Context, from, to time.Time) ([]resolve.Recording, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var out []resolve.Recording
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("from", from.Format("2006-01-02"))
		query.Set("to", to.Format("2006-01-02"))
		query.Set("page_size", fmt.Sprintf("%d", c.cfg.PageSize))
		if pageToken != "" {
			query.Set("next_page_token", pageToken)
		}
		endpoint := fmt.Sprintf("%s/users/%s/recordings?%s",
			c.cfg.BaseURL, url.PathEscape(c.cfg.UserID), query.Encode())

		var page recordingsPage
		if err := c.getJSON(ctx, endpoint, token, &page); err != nil {
			return nil, err
		}
		for _, meeting := range page.Meetings {
			out = append(out, toCanonical(meeting))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return out, nil
}

func toCanonical(meeting meetingRecording) resolve.Recording {
	rec := resolve.Recording{
		UUID:            meeting.UUID,
		SecondaryID:     meeting.ID.String(),
		Topic:           meeting.Topic,
		StartTime:       meeting.StartTime,
		DurationSeconds: meeting.Duration * 60,
		ShareURL:        meeting.ShareURL,
	}
	for _, file := range meeting.RecordingFiles {
		rec.FileVariants = append(rec.FileVariants, file.FileType)
	}
	return rec
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("zoom request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "zoom", "list", "request failed", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("zoom request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode, body, "list")
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("zoom request: decode response: %w", err)
	}
	return nil
}

func classifyStatus(status int, body []byte, operation string) error {
	message := fmt.Sprintf("zoom api returned http %d", status)
	detail := errors.New(strings.TrimSpace(string(body)))
	switch {
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "zoom", operation, message, detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "zoom", operation, message, detail)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "zoom", operation, message, detail)
	default:
		return services.Wrap(services.ErrExternalTool, "zoom", operation, message, detail)
	}
}

// Download fetches the best media variant for a recording UUID into dir and
// returns the written path. Prefers audio-only files since transcription
// does not need the video track. When the API cannot see the recording and a
// share URL is known, the share page is scraped for a direct media link.
func (c *Client) Download(ctx context.Context, uuid, shareURL, dir string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	// Recording UUIDs may contain '/' and '//' and must be double encoded.
	encoded := url.PathEscape(url.PathEscape(uuid))
	endpoint := fmt.Sprintf("%s/meetings/%s/recordings", c.cfg.BaseURL, encoded)
	var meeting meetingRecording
	if err := c.getJSON(ctx, endpoint, token, &meeting); err != nil {
		if errors.Is(err, services.ErrNotFound) && shareURL != "" {
			return c.downloadFromShare(ctx, uuid, shareURL, dir)
		}
		return "", err
	}

	file := pickMediaFile(meeting.RecordingFiles)
	if file == nil {
		if shareURL != "" {
			return c.downloadFromShare(ctx, uuid, shareURL, dir)
		}
		return "", services.Wrap(services.ErrNotFound, "zoom", "download",
			fmt.Sprintf("recording %s has no downloadable media", uuid), nil)
	}

	ext := strings.ToLower(file.FileExtension)
	if ext == "" {
		ext = strings.ToLower(file.FileType)
	}
	name := textutil.SanitizeFileName(meeting.Topic)
	if name == "" {
		name = textutil.SanitizeFileName(uuid)
	}
	target := filepath.Join(dir, name+"."+ext)
	if err := c.downloadFile(ctx, file.DownloadURL, token, target); err != nil {
		return "", err
	}
	return target, nil
}

// downloadFromShare resolves a direct media link from the recording's share
// page and streams it without API credentials. Share media is always the
// full MP4; there is no audio-only variant to prefer.
func (c *Client) downloadFromShare(ctx context.Context, uuid, shareURL, dir string) (string, error) {
	mediaURL, err := c.ResolveShareDownload(ctx, shareURL)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(mediaURL))
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		ext = ".mp4"
	}
	target := filepath.Join(dir, textutil.SanitizeFileName(uuid)+ext)
	if err := c.downloadFile(ctx, mediaURL, "", target); err != nil {
		return "", err
	}
	return target, nil
}

// pickMediaFile prefers audio-only M4A, then MP4, then anything with a
// download URL.
func pickMediaFile(files []recordingFile) *recordingFile {
	var fallback *recordingFile
	for i := range files {
		file := &files[i]
		if file.DownloadURL == "" {
			continue
		}
		switch strings.ToUpper(file.FileType) {
		case "M4A":
			return file
		case "MP4":
			if fallback == nil || strings.ToUpper(fallback.FileType) != "MP4" {
				fallback = file
			}
		default:
			if fallback == nil {
				fallback = file
			}
		}
	}
	return fallback
}

func (c *Client) downloadFile(ctx context.Context, downloadURL, token, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("zoom download: new request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "zoom", "download", "media request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(resp.StatusCode, body, "download")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("zoom download: create directory: %w", err)
	}
	tmp := target + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("zoom download: create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return services.Wrap(services.ErrTransient, "zoom", "download", "media stream interrupted", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("zoom download: close file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("zoom download: finalize file: %w", err)
	}
	return nil
}

// HealthCheck verifies credentials by fetching a token.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.accessToken(ctx)
	return err
}
