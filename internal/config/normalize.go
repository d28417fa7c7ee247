package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeWorkflow()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FXPIPE_ARTIFACT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ArtifactDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		c.Paths.ArtifactDir = defaultArtifactDir
	}
	var err error
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.Source.BaseCurrency))
	if c.Source.BaseCurrency == "" {
		c.Source.BaseCurrency = defaultBaseCurrency
	}
	currencies := make([]string, 0, len(c.Source.Currencies))
	seen := make(map[string]struct{}, len(c.Source.Currencies))
	for _, currency := range c.Source.Currencies {
		normalized := strings.ToUpper(strings.TrimSpace(currency))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		currencies = append(currencies, normalized)
	}
	c.Source.Currencies = currencies
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = defaultSourceBaseURL
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Source.RetryAttempts <= 0 {
		c.Source.RetryAttempts = defaultRetryAttempts
	}
	if c.Source.RequestsPerSecond <= 0 {
		c.Source.RequestsPerSecond = defaultRequestsPerSecond
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
}

func (c *Config) normalizeExport() error {
	path := strings.TrimSpace(c.Export.SQLitePath)
	if path == "" {
		path = filepath.Join(c.Paths.ArtifactDir, defaultExportFile)
	}
	var err error
	if c.Export.SQLitePath, err = expandPath(path); err != nil {
		return fmt.Errorf("export.sqlite_path: %w", err)
	}
	if strings.TrimSpace(c.Metrics.Textfile) != "" {
		if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	return nil
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
