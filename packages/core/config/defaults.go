package config

import "github.com/abdul-hamid-achik/hitreq/packages/http"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:     http.DefaultTimeout,
		ContentType: http.DefaultContentType,
		ValidateSSL: BoolPtr(true),
		Debug:       BoolPtr(false),
		NoColor:     BoolPtr(false),
		LogLevel:    "warn",
		LogFormat:   "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.UserAgent == defaults.UserAgent &&
		c.ContentType == defaults.ContentType &&
		len(c.Headers) == 0 &&
		c.CookieStore == defaults.CookieStore &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.GetDebug() == defaults.GetDebug() &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat
}
