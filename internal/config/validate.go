package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if !isCurrencyCode(c.Source.BaseCurrency) {
		return fmt.Errorf("source.base_currency %q must be a three-letter currency code", c.Source.BaseCurrency)
	}
	if len(c.Source.Currencies) == 0 {
		return errors.New("source.currencies must list at least one currency")
	}
	for _, currency := range c.Source.Currencies {
		if !isCurrencyCode(currency) {
			return fmt.Errorf("source.currencies: %q must be a three-letter currency code", currency)
		}
		if currency == c.Source.BaseCurrency {
			return fmt.Errorf("source.currencies: %q duplicates the base currency", currency)
		}
	}
	parsed, err := url.Parse(c.Source.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("source.base_url %q must be an absolute URL", c.Source.BaseURL)
	}
	if c.Source.RefreshHours < 0 {
		return errors.New("source.refresh_hours must be zero or positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers > 64 {
		return errors.New("workflow.workers must be at most 64")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
