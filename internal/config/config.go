// Package config loads and validates the cratesync YAML configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIURL is the public Discogs API root.
	DefaultAPIURL = "https://api.discogs.com"

	// DefaultFolderID is the "Uncategorized" folder every account has.
	// Folder 0 ("All") is a read-only view and is rejected as a sync target.
	DefaultFolderID = 1

	defaultPerPage      = 100
	defaultCallInterval = 1100 * time.Millisecond
	defaultPageInterval = 250 * time.Millisecond
	defaultPollInterval = 12 * time.Hour
)

// Config holds the full application configuration loaded from YAML.
type Config struct {
	// Username is the Discogs account whose collection is synced.
	Username string `yaml:"username"`

	// Token is a Discogs personal access token.
	Token string `yaml:"token"`

	// Wantfile is the path of the desired-state YAML file.
	Wantfile string `yaml:"wantfile"`

	// FolderID selects the collection folder to sync. Defaults to 1
	// ("Uncategorized"). Folder 0 ("All") cannot receive adds or deletes
	// and is rejected.
	FolderID *int `yaml:"folder_id,omitempty"`

	// APIURL overrides the API root, mainly for tests and mirrors.
	APIURL string `yaml:"api_url,omitempty"`

	// UserAgent identifies this client to the API. Defaults to "cratesync".
	UserAgent string `yaml:"user_agent,omitempty"`

	// PerPage is the collection listing page size (1–100). Defaults to 100.
	PerPage int `yaml:"per_page,omitempty"`

	// CallInterval is the minimum spacing between mutating or validating
	// calls. Defaults to 1.1s, matching the public rate limit.
	CallInterval time.Duration `yaml:"call_interval,omitempty"`

	// PageInterval is the minimum spacing before a pagination read.
	// Defaults to 250ms.
	PageInterval time.Duration `yaml:"page_interval,omitempty"`

	// PollInterval controls how often daemon mode re-runs the sync pass.
	// Minimum 1m. Defaults to 12h.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// Telemetry configures optional OpenTelemetry export via OTLP gRPC.
	// Omit the block entirely to disable telemetry.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// TelemetryConfig holds optional OpenTelemetry settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the gRPC host:port of the OTLP collector (e.g. "localhost:4317").
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Insecure disables TLS for the collector connection. Use for local collectors.
	Insecure bool `yaml:"insecure"`

	// ServiceName overrides the OTel service.name attribute. Defaults to "cratesync".
	ServiceName string `yaml:"service_name"`

	// Headers contains key-value pairs sent as gRPC metadata on every OTLP
	// request, e.g. Authorization: "Bearer <token>".
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultPath returns the default config file path: ~/.config/cratesync/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cratesync", "config.yaml"), nil
}

// DefaultWantfilePath returns the default wantfile path: ~/.config/cratesync/want.yaml.
func DefaultWantfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cratesync", "want.yaml"), nil
}

// Load reads and validates the configuration file at the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %q: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true) // reject unknown keys to catch typos early
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Write marshals the config to path, creating parent directories as needed.
// Used by the setup wizard.
func (c *Config) Write(path string) error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("refusing to write invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %q: %w", path, err)
	}
	return nil
}

// Folder returns the effective sync target folder id.
func (c *Config) Folder() int {
	if c.FolderID == nil {
		return DefaultFolderID
	}
	return *c.FolderID
}

// validate checks required fields and applies defaults in place.
func (c *Config) validate() error {
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Token == "" {
		return fmt.Errorf("token is required")
	}
	if c.Wantfile == "" {
		return fmt.Errorf("wantfile is required")
	}

	if c.FolderID != nil && *c.FolderID <= 0 {
		if *c.FolderID == 0 {
			return fmt.Errorf("folder_id 0 is the read-only \"All\" view and cannot be a sync target")
		}
		return fmt.Errorf("folder_id %d is invalid", *c.FolderID)
	}

	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	u, err := url.ParseRequestURI(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_url %q must be a valid http or https URL", c.APIURL)
	}

	if c.UserAgent == "" {
		c.UserAgent = "cratesync"
	}

	if c.PerPage == 0 {
		c.PerPage = defaultPerPage
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		return fmt.Errorf("per_page %d must be between 1 and 100", c.PerPage)
	}

	if c.CallInterval == 0 {
		c.CallInterval = defaultCallInterval
	}
	if c.CallInterval < 0 {
		return fmt.Errorf("call_interval must not be negative")
	}

	if c.PageInterval == 0 {
		c.PageInterval = defaultPageInterval
	}
	if c.PageInterval < 0 {
		return fmt.Errorf("page_interval must not be negative")
	}

	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollInterval < time.Minute {
		return fmt.Errorf("poll_interval %v is too short (minimum 1m)", c.PollInterval)
	}

	if c.Telemetry != nil {
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("telemetry.otlp_endpoint is required when telemetry is configured")
		}
	}

	return nil
}
