package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateDocGen(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSearch() error {
	for _, addr := range c.Search.Addresses {
		if err := validateURL("search.addresses", addr); err != nil {
			return err
		}
	}
	if c.Search.TimeoutSeconds < 0 {
		return errors.New("search.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateDocGen() error {
	if c.DocGen.BaseURL == "" {
		return nil
	}
	if err := validateURL("docgen.base_url", c.DocGen.BaseURL); err != nil {
		return err
	}
	if c.DocGen.RepositoryID == "" {
		return errors.New("docgen.repository_id must be set when docgen.base_url is configured")
	}
	return nil
}

func (c *Config) validateMail() error {
	switch c.Mail.Transport {
	case "none":
		return nil
	case "multipart":
		if c.Mail.Endpoint == "" {
			return errors.New("mail.endpoint must be set when mail.transport is \"multipart\"")
		}
		return validateURL("mail.endpoint", c.Mail.Endpoint)
	case "graph":
		if c.Mail.GraphSender == "" {
			return errors.New("mail.graph_sender must be set when mail.transport is \"graph\"")
		}
		if c.Mail.Token == "" {
			return errors.New("mail.token must be set when mail.transport is \"graph\" (or set VARIANTSHARE_MAIL_TOKEN)")
		}
		return validateURL("mail.endpoint", c.Mail.Endpoint)
	default:
		return fmt.Errorf("mail.transport: unsupported value %q (want multipart, graph, or none)", c.Mail.Transport)
	}
}

func (c *Config) validateExport() error {
	if _, err := time.LoadLocation(c.Export.Timezone); err != nil {
		return fmt.Errorf("export.timezone: %w", err)
	}
	if _, err := language.Parse(c.Export.Locale); err != nil {
		return fmt.Errorf("export.locale: %w", err)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.SendPerMinute < 0 {
		return errors.New("api.send_per_minute must not be negative")
	}
	if c.API.SendPerMinute > 0 && c.API.SendBurst <= 0 {
		return errors.New("api.send_burst must be positive when api.send_per_minute is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: %q must use http or https", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: %q is missing a host", field, value)
	}
	return nil
}
