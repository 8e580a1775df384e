package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Workflow.MaxConcurrent < 1 {
		return errors.New("workflow.max_concurrent must be at least 1")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.StrictWindowMinutes > c.Matching.WindowMinutes {
		return fmt.Errorf("matching.strict_window_minutes (%d) must not exceed matching.window_minutes (%d)",
			c.Matching.StrictWindowMinutes, c.Matching.WindowMinutes)
	}
	if c.Matching.TopicSimilarityThreshold < 0 || c.Matching.TopicSimilarityThreshold > 1 {
		return errors.New("matching.topic_similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

// ValidateZoom checks that provider credentials are present. It is separate
// from Validate because resolve/process commands need Zoom access while
// purely local commands (queue inspection, config) do not.
func (c *Config) ValidateZoom() error {
	if c.Zoom.AccountID == "" || c.Zoom.ClientID == "" || c.Zoom.ClientSecret == "" {
		return errors.New("zoom credentials required: set zoom.account_id, zoom.client_id, zoom.client_secret (or the ZOOM_* env vars)")
	}
	if c.Zoom.UserID == "" {
		return errors.New("zoom.user_id required: the account email that owns the recordings")
	}
	return nil
}

// ValidateTranscriber checks that the speech-to-text API is configured.
func (c *Config) ValidateTranscriber() error {
	if c.Transcriber.APIKey == "" {
		return errors.New("transcriber.api_key required (or set OPENAI_API_KEY)")
	}
	return nil
}

// ValidateClassifier checks that the section labeling LLM is configured.
func (c *Config) ValidateClassifier() error {
	if c.Classifier.APIKey == "" {
		return errors.New("classifier.api_key required (or set CLASSIFIER_API_KEY)")
	}
	return nil
}
