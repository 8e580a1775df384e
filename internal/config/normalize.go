package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeZoom()
	c.normalizeTranscriber()
	c.normalizeClassifier()
	c.normalizeMatching()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeZoom() {
	c.Zoom.AccountID = strings.TrimSpace(c.Zoom.AccountID)
	c.Zoom.ClientID = strings.TrimSpace(c.Zoom.ClientID)
	c.Zoom.ClientSecret = strings.TrimSpace(c.Zoom.ClientSecret)
	c.Zoom.UserID = strings.TrimSpace(c.Zoom.UserID)
	if c.Zoom.AccountID == "" {
		c.Zoom.AccountID = os.Getenv("ZOOM_ACCOUNT_ID")
	}
	if c.Zoom.ClientID == "" {
		c.Zoom.ClientID = os.Getenv("ZOOM_CLIENT_ID")
	}
	if c.Zoom.ClientSecret == "" {
		c.Zoom.ClientSecret = os.Getenv("ZOOM_CLIENT_SECRET")
	}
	if c.Zoom.UserID == "" {
		c.Zoom.UserID = os.Getenv("ZOOM_USER_ID")
	}
	c.Zoom.BaseURL = strings.TrimRight(strings.TrimSpace(c.Zoom.BaseURL), "/")
	if c.Zoom.BaseURL == "" {
		c.Zoom.BaseURL = defaultZoomBaseURL
	}
	c.Zoom.AuthURL = strings.TrimSpace(c.Zoom.AuthURL)
	if c.Zoom.AuthURL == "" {
		c.Zoom.AuthURL = defaultZoomAuthURL
	}
	if c.Zoom.PageSize <= 0 {
		c.Zoom.PageSize = defaultZoomPageSize
	}
	if c.Zoom.TimeoutSeconds <= 0 {
		c.Zoom.TimeoutSeconds = defaultZoomTimeoutSeconds
	}
	if c.Zoom.DownloadTimeout <= 0 {
		c.Zoom.DownloadTimeout = defaultZoomDownloadTimeout
	}
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	if c.Transcriber.APIKey == "" {
		c.Transcriber.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	if c.Transcriber.BaseURL == "" {
		c.Transcriber.BaseURL = defaultTranscriberBaseURL
	}
	if strings.TrimSpace(c.Transcriber.Model) == "" {
		c.Transcriber.Model = defaultTranscriberModel
	}
	if c.Transcriber.MaxUploadMiB <= 0 {
		c.Transcriber.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Transcriber.TimeoutSeconds <= 0 {
		c.Transcriber.TimeoutSeconds = defaultTranscriberTimeout
	}
}

func (c *Config) normalizeClassifier() {
	c.Classifier.APIKey = strings.TrimSpace(c.Classifier.APIKey)
	if c.Classifier.APIKey == "" {
		c.Classifier.APIKey = os.Getenv("CLASSIFIER_API_KEY")
	}
	c.Classifier.BaseURL = strings.TrimSpace(c.Classifier.BaseURL)
	if c.Classifier.BaseURL == "" {
		c.Classifier.BaseURL = defaultClassifierBaseURL
	}
	if strings.TrimSpace(c.Classifier.Model) == "" {
		c.Classifier.Model = defaultClassifierModel
	}
	if c.Classifier.MaxTokens <= 0 {
		c.Classifier.MaxTokens = defaultClassifierTokens
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.WindowMinutes <= 0 {
		c.Matching.WindowMinutes = defaultMatchWindowMinutes
	}
	if c.Matching.StrictWindowMinutes <= 0 {
		c.Matching.StrictWindowMinutes = defaultStrictWindowMinutes
	}
	if c.Matching.TopicSimilarityThreshold <= 0 || c.Matching.TopicSimilarityThreshold >= 1 {
		c.Matching.TopicSimilarityThreshold = defaultTopicSimilarityThreshold
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxConcurrent <= 0 {
		c.Workflow.MaxConcurrent = defaultMaxConcurrent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
