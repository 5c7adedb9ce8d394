package site

import (
	"encoding/json"
	"os"

	"github.com/ziadkadry99/doctoc/internal/anchor"
	"github.com/ziadkadry99/doctoc/internal/outline"
)

// SearchEntry is one searchable heading. Path carries the fragment so a hit
// lands on the heading's anchor.
type SearchEntry struct {
	Path    string `json:"path"`
	Anchor  string `json:"anchor"`
	Title   string `json:"title"`
	Page    string `json:"page"`
	Level   int    `json:"level"`
	Section string `json:"section,omitempty"` // Text of the enclosing H1.
}

// searchEntries lists every heading of a page in document order.
func searchEntries(pagePath, pageTitle string, doc *outline.Document) []SearchEntry {
	entries := make([]SearchEntry, 0, len(doc.Headings))
	for _, h := range doc.Headings {
		e := SearchEntry{
			Path:   pagePath + "#" + h.ID,
			Anchor: h.ID,
			Title:  h.Text,
			Page:   pageTitle,
			Level:  int(h.Level),
		}
		if h1 := h.Nearest(anchor.H1); h1 != nil {
			e.Section = h1.Text
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	if entries == nil {
		entries = []SearchEntry{}
	}
	return writeJSON(outputPath, entries)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
