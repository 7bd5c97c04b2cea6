// Package config loads and validates the mystbuilder configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourceFormat selects the input frontend.
type SourceFormat string

const (
	// FormatAuto picks the frontend per file extension (.xml / .md).
	FormatAuto     SourceFormat = "auto"
	FormatXML      SourceFormat = "xml"
	FormatMarkdown SourceFormat = "markdown"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Site    SiteConfig    `yaml:"site,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
}

// SourceConfig describes where document sources come from.
type SourceConfig struct {
	Directory string       `yaml:"directory"`
	Format    SourceFormat `yaml:"format,omitempty"`
	// Repository optionally names a git repository to clone the source
	// tree from before building.
	Repository string `yaml:"repository,omitempty"`
	Branch     string `yaml:"branch,omitempty"`
}

// OutputConfig describes where build artifacts land.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// StatePath overrides the build-state database location. Defaults to
	// <output>/.mystbuilder.db.
	StatePath string `yaml:"state_path,omitempty"`
}

// SiteConfig carries document-set metadata.
type SiteConfig struct {
	Title string `yaml:"title,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// Every triggers a scheduled full rebuild regardless of file events
	// (0 disables).
	Every time.Duration `yaml:"every,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint in watch mode.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"` // e.g. ":9090", empty disables
}

// EventsConfig enables per-document build event publishing over NATS.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, applies env overrides, defaults, and validates configuration.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MYSTBUILDER_SOURCE_DIR"); v != "" {
		c.Source.Directory = v
	}
	if v := os.Getenv("MYSTBUILDER_OUTPUT_DIR"); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv("MYSTBUILDER_NATS_URL"); v != "" {
		c.Events.NATSURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Source.Format == "" {
		c.Source.Format = FormatAuto
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./build"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	if c.Events.Enabled && c.Events.Subject == "" {
		c.Events.Subject = "mystbuilder.doc.built"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Source.Directory == "" {
		return fmt.Errorf("source.directory is required")
	}
	switch c.Source.Format {
	case FormatAuto, FormatXML, FormatMarkdown:
	default:
		return fmt.Errorf("source.format must be one of auto, xml, markdown (got %q)", c.Source.Format)
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}
	if c.Metrics.Listen != "" && !strings.Contains(c.Metrics.Listen, ":") {
		return fmt.Errorf("metrics.listen must be a host:port address (got %q)", c.Metrics.Listen)
	}
	return nil
}

const starterConfig = `# mystbuilder configuration
source:
  directory: ./docs
  # format: auto | xml | markdown
  format: auto

output:
  directory: ./build

site:
  title: ""

watch:
  debounce: 500ms

# metrics:
#   listen: ":9090"

# events:
#   enabled: true
#   nats_url: nats://localhost:4222
#   subject: mystbuilder.doc.built
`

// Init writes a starter configuration file.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(starterConfig), 0o644)
}
