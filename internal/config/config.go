package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds deployment parameters shared by the mlcube-deploy subcommands.
type Config struct {
	// HostingBaseURL is the folder URL where packaged assets are (to be) hosted.
	// Every asset must be reachable as <HostingBaseURL>/<canonical name> via plain HTTP GET.
	HostingBaseURL string `yaml:"hosting_base_url"`
	// ServerURL is the MedPerf server root used for cube registration.
	ServerURL string `yaml:"server_url"`
	// SynapseRegistry is the docker registry host used when re-pointing
	// the cube manifest at a Synapse project.
	SynapseRegistry string `yaml:"synapse_registry"`
	// Timeout is the duration for HTTP operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "mlcube-deploy-settings.yaml"

	// DefaultServerURL is the MedPerf server used when none is configured.
	DefaultServerURL = "https://api.medperf.org"

	// DefaultSynapseRegistry is the Synapse docker registry host.
	DefaultSynapseRegistry = "docker.synapse.org"

	// DefaultTimeout is the default duration for HTTP operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault reads configuration from the provided path, returning
// validated defaults when the file does not exist yet. Most subcommands can
// run before any settings were persisted.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	if _, err := os.Stat(filepath.Clean(path)); errors.Is(err, os.ErrNotExist) {
		cfg := new(Config)
		if err := Validate(cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	return Load(path)
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for formatting and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	if cfg.SynapseRegistry == "" {
		cfg.SynapseRegistry = DefaultSynapseRegistry
	}

	if err := validateURL("server URL", cfg.ServerURL); err != nil {
		return err
	}

	if cfg.HostingBaseURL == "" {
		return nil
	}

	return validateURL("hosting base URL", cfg.HostingBaseURL)
}

// validateURL ensures the value parses as an absolute http(s) URL.
func validateURL(what, value string) error {
	parsed, err := url.ParseRequestURI(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", what, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid %s: unsupported scheme %q", what, parsed.Scheme)
	}

	return nil
}
