// Package anchor derives stable, URL-fragment-safe identifiers for document
// headings.
//
// An identifier is composed from the heading's own DOM id and the text of its
// enclosing H1 and H2 sections, so two headings that share a local name (say
// "Parameters") under different sections get different anchors without a
// page-wide counter. Adding or removing unrelated sections never changes an
// existing anchor.
package anchor

import "strings"

// Level is the heading depth: 1 for H1 through 3 for H3.
type Level int

const (
	H1 Level = 1
	H2 Level = 2
	H3 Level = 3
)

// Heading is one indexed heading of a document.
type Heading struct {
	Level Level
	Text  string // Raw text content.
	DomID string // Id assigned by the authoring pipeline.

	// ID is the derived anchor. It is set once, by the outline builder.
	ID string

	// Parents holds the enclosing headings up to the nearest H1, outermost
	// first. An H1 has no parents.
	Parents []*Heading
}

// Nearest returns the closest enclosing heading of the given level, or nil.
func (h *Heading) Nearest(l Level) *Heading {
	for i := len(h.Parents) - 1; i >= 0; i-- {
		if h.Parents[i].Level == l {
			return h.Parents[i]
		}
	}
	return nil
}

// DeriveID returns the anchor identifier for h. It never fails; the worst case
// is an empty string, which callers must accept as a valid identifier.
func DeriveID(h *Heading) string {
	if h == nil {
		return ""
	}
	switch h.Level {
	case H1:
		return Sanitize(h.DomID)
	case H2:
		return Sanitize(sectionPrefix(h.Nearest(H1)) + "-" + h.DomID)
	case H3:
		return Sanitize(sectionPrefix(h.Nearest(H1)) + "-" + sectionPrefix(h.Nearest(H2)) + "-" + h.DomID)
	default:
		return Sanitize(h.DomID)
	}
}

// Generator adapts DeriveID to the outline builder's hash callback.
func Generator(_ string, h *Heading) string {
	return DeriveID(h)
}

// sectionPrefix lowercases the section text and turns its first space into a
// hyphen. Only the first one: published permalinks were minted that way and
// the remaining spaces are dropped by Sanitize.
func sectionPrefix(h *Heading) string {
	if h == nil {
		return ""
	}
	return strings.Replace(strings.ToLower(h.Text), " ", "-", 1)
}

const nbsp = "nbsp"

// Sanitize keeps ASCII letters and hyphens, removes every "nbsp" (including
// occurrences that only appear once an inner one is gone) and trims leading
// hyphens. The stages run in that order in a single pass over s.
func Sanitize(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !allowed(c) {
			continue
		}
		buf = append(buf, c)
		// "nbsp" cannot overlap itself, so removing each match as soon as it
		// forms at the tail is the same as repeated leftmost removal.
		if n := len(buf); n >= len(nbsp) && string(buf[n-len(nbsp):]) == nbsp {
			buf = buf[:n-len(nbsp)]
		}
	}
	start := 0
	for start < len(buf) && buf[start] == '-' {
		start++
	}
	return string(buf[start:])
}

func allowed(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
