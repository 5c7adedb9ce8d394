package walker

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skippedDirs are directory names never descended into.
var skippedDirs = []string{
	".git",
	"node_modules",
	".doctoc",
	".idea",
	".vscode",
}

// partialPrefix marks markdown meant to be included by other pages, not
// published on its own. It applies to files and directories.
const partialPrefix = "_"

// filter decides which markdown files under a root become pages.
type filter struct {
	include   []string
	exclude   []string
	gitignore []string
	outputDir string // absolute; empty when the output is outside the root
	partials  bool
}

func newFilter(root string, config WalkerConfig) *filter {
	f := &filter{
		include:   config.Include,
		exclude:   config.Exclude,
		gitignore: loadGitignore(filepath.Join(root, ".gitignore")),
		partials:  config.IncludePartials,
	}
	if config.OutputDir != "" {
		if out, err := filepath.Abs(config.OutputDir); err == nil && within(root, out) {
			f.outputDir = out
		}
	}
	return f
}

// skipDir reports whether the subtree at path is left out. The root itself is
// never skipped.
func (f *filter) skipDir(path, name string) bool {
	if f.outputDir != "" && path == f.outputDir {
		return true
	}
	for _, d := range skippedDirs {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return !f.partials && strings.HasPrefix(name, partialPrefix)
}

// keep reports whether the file at relPath becomes a page.
func (f *filter) keep(relPath string) bool {
	if !f.partials && strings.HasPrefix(filepath.Base(relPath), partialPrefix) {
		return false
	}
	if matchesGitignore(relPath, f.gitignore) {
		return false
	}
	return MatchesInclude(relPath, f.include) && !MatchesExclude(relPath, f.exclude)
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// MatchesInclude reports whether relPath matches one of patterns. An empty
// pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	return len(patterns) == 0 || matchesAny(relPath, patterns)
}

// MatchesExclude reports whether relPath matches one of patterns. An empty
// pattern list excludes nothing.
func MatchesExclude(relPath string, patterns []string) bool {
	return len(patterns) > 0 && matchesAny(relPath, patterns)
}

// matchesAny matches the slash-separated path, then its base name, so
// "drafts.md" and "**/drafts/**" both work as patterns.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}
