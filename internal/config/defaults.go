package config

// ScrollToDisabled is the scroll_to sentinel that turns off auto-scroll
// correction on load.
const ScrollToDisabled = -1

// DefaultExcludes are glob patterns excluded from the site by default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"_site/**",
	"**/drafts/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ProjectName: "Documentation",
		SourceDir:   "docs",
		OutputDir:   "_site",
		Include:     []string{"**/*.md"},
		Exclude:     DefaultExcludes,
		LedgerPath:  ".doctoc/anchors.db",
		TOC: TOCConfig{
			Selectors:         "h1, h2, h3",
			IgnoreSelector:    ".toc-ignore",
			HighlightOffset:   60,
			ScrollTo:          ScrollToDisabled,
			ScrollHistory:     true,
			ShowEffectSpeedMS: 180,
			HideEffectSpeedMS: 180,
			GraceWindowMS:     50,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: LogNormal,
		},
	}
}
