package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/services/classifier"
	"scribe/internal/services/whisper"
	"scribe/internal/services/zoom"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func (c *commandContext) withStore(fn func(*queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) zoomClient() (*zoom.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateZoom(); err != nil {
		return nil, err
	}
	return zoom.NewClient(zoom.Config{
		AccountID:       cfg.Zoom.AccountID,
		ClientID:        cfg.Zoom.ClientID,
		ClientSecret:    cfg.Zoom.ClientSecret,
		UserID:          cfg.Zoom.UserID,
		BaseURL:         cfg.Zoom.BaseURL,
		AuthURL:         cfg.Zoom.AuthURL,
		PageSize:        cfg.Zoom.PageSize,
		TimeoutSeconds:  cfg.Zoom.TimeoutSeconds,
		DownloadTimeout: cfg.Zoom.DownloadTimeout,
	}), nil
}

func (c *commandContext) whisperService() (*whisper.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateTranscriber(); err != nil {
		return nil, err
	}
	return whisper.NewService(whisper.Config{
		APIKey:         cfg.Transcriber.APIKey,
		BaseURL:        cfg.Transcriber.BaseURL,
		Model:          cfg.Transcriber.Model,
		Language:       cfg.Transcriber.Language,
		MaxUploadMiB:   cfg.Transcriber.MaxUploadMiB,
		TimeoutSeconds: cfg.Transcriber.TimeoutSeconds,
	}, cfg.FFmpegBinary(), cfg.FFprobeBinary()), nil
}

func (c *commandContext) classifierClient() (*classifier.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateClassifier(); err != nil {
		return nil, err
	}
	return classifier.NewClient(classifier.Config{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		MaxTokens:      cfg.Classifier.MaxTokens,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	}), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
