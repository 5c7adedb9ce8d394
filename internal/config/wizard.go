package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the handful of settings that differ between sites and
// saves the result to path. Everything else keeps its default.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to doctoc! Let's configure your documentation site.")
	fmt.Println()

	cfg := DefaultConfig()
	if wd, err := os.Getwd(); err == nil {
		cfg.ProjectName = filepath.Base(wd)
	}

	steps := []struct {
		label string
		dst   *string
	}{
		{"Project name", &cfg.ProjectName},
		{"Markdown source directory", &cfg.SourceDir},
		{"Site output directory", &cfg.OutputDir},
	}
	for _, st := range steps {
		p := promptui.Prompt{Label: st.label, Default: *st.dst}
		v, err := p.Run()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.label, err)
		}
		*st.dst = v
	}

	langPrompt := promptui.Prompt{
		Label:   "Content languages (comma-separated, empty for none)",
		Default: "",
	}
	langs, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	cfg.Languages = SplitAndTrim(langs)

	historyPrompt := promptui.Select{
		Label: "Keep the address bar hash in step with scrolling?",
		Items: []string{"yes", "no"},
	}
	_, history, err := historyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("scroll history: %w", err)
	}
	cfg.TOC.ScrollHistory = history == "yes"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
