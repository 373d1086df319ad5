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
	c.normalizeSearch()
	c.normalizeDocGen()
	c.normalizeMail()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("VARIANTSHARE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSearch() {
	addresses := make([]string, 0, len(c.Search.Addresses))
	for _, addr := range c.Search.Addresses {
		if trimmed := strings.TrimRight(strings.TrimSpace(addr), "/"); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}
	if len(addresses) == 0 {
		addresses = []string{defaultSearchAddress}
	}
	c.Search.Addresses = addresses
	c.Search.Index = strings.TrimSpace(c.Search.Index)
	if c.Search.Index == "" {
		c.Search.Index = defaultSearchIndex
	}
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	if c.Search.APIKey == "" {
		if value, ok := os.LookupEnv("VARIANTSHARE_SEARCH_API_KEY"); ok {
			c.Search.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = defaultSearchMaxResults
	}
}

func (c *Config) normalizeDocGen() {
	c.DocGen.BaseURL = strings.TrimRight(strings.TrimSpace(c.DocGen.BaseURL), "/")
	c.DocGen.RepositoryID = strings.TrimSpace(c.DocGen.RepositoryID)
}

func (c *Config) normalizeMail() {
	c.Mail.Transport = strings.ToLower(strings.TrimSpace(c.Mail.Transport))
	if c.Mail.Transport == "" {
		c.Mail.Transport = defaultMailTransport
	}
	c.Mail.Endpoint = strings.TrimRight(strings.TrimSpace(c.Mail.Endpoint), "/")
	if c.Mail.Transport == "graph" && c.Mail.Endpoint == "" {
		c.Mail.Endpoint = defaultGraphBaseEndpoint
	}
	c.Mail.GraphSender = strings.TrimSpace(c.Mail.GraphSender)
	c.Mail.Token = strings.TrimSpace(c.Mail.Token)
	if c.Mail.Token == "" {
		if value, ok := os.LookupEnv("VARIANTSHARE_MAIL_TOKEN"); ok {
			c.Mail.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeExport() {
	c.Export.Timezone = strings.TrimSpace(c.Export.Timezone)
	if c.Export.Timezone == "" {
		c.Export.Timezone = defaultTimezone
	}
	c.Export.Locale = strings.TrimSpace(c.Export.Locale)
	if c.Export.Locale == "" {
		c.Export.Locale = defaultLocale
	}
	c.Export.ImageAppTypes = normalizeLabels(c.Export.ImageAppTypes)
	c.Export.URLDenyAppTypes = normalizeLabels(c.Export.URLDenyAppTypes)
	c.Export.LocatorAppType = strings.ToLower(strings.TrimSpace(c.Export.LocatorAppType))
	c.Export.FilenamePrefix = strings.TrimSpace(c.Export.FilenamePrefix)
	if c.Export.FilenamePrefix == "" {
		c.Export.FilenamePrefix = defaultFilenamePrefix
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

func normalizeLabels(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
