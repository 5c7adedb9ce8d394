package config

// LogLevel selects how much doctoc logs.
type LogLevel string

const (
	LogNone   LogLevel = "none"
	LogNormal LogLevel = "normal"
	LogDebug  LogLevel = "debug"
)

// Config is the top-level doctoc configuration, corresponding to .doctoc.yml.
type Config struct {
	ProjectName string        `yaml:"project_name" koanf:"project_name"`
	SourceDir   string        `yaml:"source_dir" koanf:"source_dir"`
	OutputDir   string        `yaml:"output_dir" koanf:"output_dir"`
	Include     []string      `yaml:"include" koanf:"include"`
	Exclude     []string      `yaml:"exclude" koanf:"exclude"`
	Languages   []string      `yaml:"languages" koanf:"languages"`
	LedgerPath  string        `yaml:"ledger_path" koanf:"ledger_path"`
	TOC         TOCConfig     `yaml:"toc" koanf:"toc"`
	Server      ServerConfig  `yaml:"server" koanf:"server"`
	Logging     LoggingConfig `yaml:"logging" koanf:"logging"`
}

// TOCConfig holds the knobs the TOC panel and its synchronizer rely on.
type TOCConfig struct {
	Selectors         string  `yaml:"selectors" koanf:"selectors"`
	IgnoreSelector    string  `yaml:"ignore_selector" koanf:"ignore_selector"`
	HighlightOffset   float64 `yaml:"highlight_offset" koanf:"highlight_offset"`
	ScrollTo          int     `yaml:"scroll_to" koanf:"scroll_to"`
	ScrollHistory     bool    `yaml:"scroll_history" koanf:"scroll_history"`
	ShowEffectSpeedMS int     `yaml:"show_effect_speed_ms" koanf:"show_effect_speed_ms"`
	HideEffectSpeedMS int     `yaml:"hide_effect_speed_ms" koanf:"hide_effect_speed_ms"`
	GraceWindowMS     int     `yaml:"grace_window_ms" koanf:"grace_window_ms"`
}

// ServerConfig holds settings for `doctoc serve`.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"` // allow all CORS origins (dev mode)
}

// LoggingConfig controls the console logger.
type LoggingConfig struct {
	Level LogLevel `yaml:"level" koanf:"level"`
}
