package shared

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Backend names accepted by [DigestConfig.Backend].
const (
	DigestBackendFile   = "file"
	DigestBackendSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Output   OutputConfig   `toml:"output"`
	Digest   DigestConfig   `toml:"digest"`
	Database DatabaseConfig `toml:"database"`
	Lock     LockConfig     `toml:"lock"`
	Server   ServerConfig   `toml:"server"`
	Rules    []RuleConfig   `toml:"rules"`
}

// SourceConfig describes where the playlist is retrieved from.
type SourceConfig struct {
	URL            string  `toml:"url"`
	Token          string  `toml:"token"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Retries        int     `toml:"retries"`
	RetryPerSecond float64 `toml:"retry_per_second"`
}

// OutputConfig describes the rewritten playlist.
type OutputConfig struct {
	Path        string `toml:"path"`
	Generator   string `toml:"generator"`
	Placeholder string `toml:"placeholder"`
}

// DigestConfig selects the change gate's digest store.
type DigestConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LockConfig names the file used to keep runs single-process.
type LockConfig struct {
	Path string `toml:"path"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	RefreshInterval string `toml:"refresh_interval"` // Go duration; empty or "0" disables periodic runs
}

// Refresh parses RefreshInterval. An empty value means no periodic runs.
func (s ServerConfig) Refresh() (time.Duration, error) {
	if s.RefreshInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: server.refresh_interval: %w", ErrInvalidConfig, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: server.refresh_interval must not be negative", ErrInvalidConfig)
	}
	return d, nil
}

// RuleConfig is one [[rules]] table. Which fields are required depends on Kind.
type RuleConfig struct {
	Name            string   `toml:"name"`
	Description     string   `toml:"description"`
	Kind            string   `toml:"kind"`
	Names           []string `toml:"names"`
	Groups          []string `toml:"groups"`
	Exclude         []string `toml:"exclude"`
	Exact           bool     `toml:"exact"`
	Anchor          []string `toml:"anchor"`
	AnchorExact     bool     `toml:"anchor_exact"`
	TargetGroup     string   `toml:"target_group"`
	MetadataPattern string   `toml:"metadata_pattern"`
	MetadataReplace string   `toml:"metadata_replace"`
	LocatorFind     string   `toml:"locator_find"`
	LocatorReplace  string   `toml:"locator_replace"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Sections missing from the file keep the embedded defaults, except [[rules]]:
// a file that declares any rule replaces the default rule list entirely.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Rules = nil

	md, err := toml.Decode(string(data), config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !md.IsDefined("rules") {
		config.Rules = DefaultConfig().Rules
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the settings every run depends on. Rule tables are validated when compiled.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("%w: source.url is empty", ErrInvalidConfig)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output.path is empty", ErrInvalidConfig)
	}
	if !slices.Contains([]string{DigestBackendFile, DigestBackendSQLite}, c.Digest.Backend) {
		return fmt.Errorf("%w: unknown digest backend %q", ErrInvalidConfig, c.Digest.Backend)
	}
	if c.Digest.Backend == DigestBackendFile && c.Digest.Path == "" {
		return fmt.Errorf("%w: digest.path is empty", ErrInvalidConfig)
	}
	if c.Digest.Backend == DigestBackendSQLite && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Source.Retries < 0 {
		return fmt.Errorf("%w: source.retries must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Server.Refresh(); err != nil {
		return err
	}
	return nil
}
