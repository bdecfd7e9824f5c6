package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

// Config represents the hitreq configuration
type Config struct {
	Timeout     int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // milliseconds, negative disables
	UserAgent   string            `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`
	ContentType string            `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"` // Default headers for all requests
	CookieStore string            `yaml:"cookieStore,omitempty" json:"cookieStore,omitempty"`
	ValidateSSL *bool             `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Debug       *bool             `yaml:"debug,omitempty" json:"debug,omitempty"`
	NoColor     *bool             `yaml:"noColor,omitempty" json:"noColor,omitempty"`
	LogLevel    string            `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogFormat   string            `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetDebug returns the debug setting, defaulting to false
func (c *Config) GetDebug() bool {
	return getBool(c.Debug, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitreq.yaml",
	".hitreq.yml",
	".hitreq.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isJSON(path) {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout != 0 {
		result.Timeout = other.Timeout
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.ContentType != "" {
		result.ContentType = other.ContentType
	}
	if other.CookieStore != "" {
		result.CookieStore = other.CookieStore
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Debug != nil {
		result.Debug = other.Debug
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range other.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}

	return &result
}

// SaveConfig saves the configuration to a file, as JSON when the file
// name ends in .json and YAML otherwise.
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Apply seeds r with the configured request defaults.
func (c *Config) Apply(r *http.Request) *http.Request {
	if c.Timeout != 0 {
		r.SetTimeout(c.Timeout)
	}
	if c.UserAgent != "" {
		r.SetUserAgent(c.UserAgent)
	}
	if c.ContentType != "" {
		r.SetContentType(c.ContentType)
	}
	return r.SetHeaders(c.Headers)
}

// ClientOptions returns the client options implied by the configuration.
func (c *Config) ClientOptions(log *logger.Logger) []http.ClientOption {
	var transportOpts []http.TransportOption
	if !c.GetValidateSSL() {
		transportOpts = append(transportOpts, http.WithValidateSSL(false))
	}
	if c.Proxy != "" {
		transportOpts = append(transportOpts, http.WithProxy(c.Proxy))
	}

	return []http.ClientOption{
		http.WithTransport(http.NewNetTransport(transportOpts...)),
		http.WithLogger(log),
		http.WithDebug(c.GetDebug()),
	}
}

// LoggerConfig returns the logger configuration. Debug mode raises the
// level to debug.
func (c *Config) LoggerConfig() logger.Config {
	level := c.LogLevel
	if c.GetDebug() {
		level = "debug"
	}
	return logger.Config{
		Level:   level,
		Format:  c.LogFormat,
		NoColor: c.GetNoColor(),
	}
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
