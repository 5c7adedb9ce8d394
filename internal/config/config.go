package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override the config file.
// A double underscore descends into a section: DOCTOC_SERVER__PORT -> server.port.
const EnvPrefix = "DOCTOC_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCTOC_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[LogLevel]bool{
	LogNone:   true,
	LogNormal: true,
	LogDebug:  true,
}

var validSelectors = map[string]bool{"h1": true, "h2": true, "h3": true}

// Validate checks that the configuration contains valid values. It reports
// every problem, not just the first.
func (c *Config) Validate() error {
	var err error

	if c.SourceDir == "" {
		err = multierr.Append(err, fmt.Errorf("source_dir is required"))
	}
	if c.OutputDir == "" {
		err = multierr.Append(err, fmt.Errorf("output_dir is required"))
	}
	if c.Logging.Level != "" && !validLogLevels[c.Logging.Level] {
		err = multierr.Append(err, fmt.Errorf("invalid logging.level %q: must be one of none, normal, debug", c.Logging.Level))
	}

	selectors := SplitAndTrim(c.TOC.Selectors)
	if len(selectors) == 0 {
		err = multierr.Append(err, fmt.Errorf("toc.selectors is required"))
	}
	for _, s := range selectors {
		if !validSelectors[strings.ToLower(s)] {
			err = multierr.Append(err, fmt.Errorf("invalid toc selector %q: only h1, h2 and h3 are indexed", s))
		}
	}
	if c.TOC.HighlightOffset < 0 {
		err = multierr.Append(err, fmt.Errorf("toc.highlight_offset must be non-negative"))
	}
	if c.TOC.ShowEffectSpeedMS < 0 || c.TOC.HideEffectSpeedMS < 0 {
		err = multierr.Append(err, fmt.Errorf("toc effect speeds must be non-negative"))
	}
	if c.TOC.GraceWindowMS <= 0 {
		err = multierr.Append(err, fmt.Errorf("toc.grace_window_ms must be positive"))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	return err
}

// SplitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty items.
func SplitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
