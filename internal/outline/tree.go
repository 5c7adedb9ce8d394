package outline

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/doctoc/internal/anchor"
)

// Entry is one TOC item. It mirrors exactly one heading.
type Entry struct {
	ID       string
	Text     string
	Level    anchor.Level
	Index    int // Position in document order.
	Parent   *Entry
	Children []*Entry

	Expanded    bool
	Highlighted bool
}

// Tree is the navigable outline of a page. Entries are keyed by document
// position, so two headings that derive the same id remain two entries.
type Tree struct {
	Roots   []*Entry
	entries []*Entry
}

// Build constructs the tree for a parsed document. An H2 with no preceding H1,
// or an H3 with no enclosing section at all, becomes a root.
func Build(doc *Document) *Tree {
	t := &Tree{}
	var curH1, curH2 *Entry
	for i, h := range doc.Headings {
		e := &Entry{ID: h.ID, Text: strings.TrimSpace(h.Text), Level: h.Level, Index: i}
		var parent *Entry
		switch h.Level {
		case anchor.H1:
			curH1, curH2 = e, nil
		case anchor.H2:
			parent = curH1
			curH2 = e
		case anchor.H3:
			parent = curH2
			if parent == nil {
				parent = curH1
			}
		}
		t.attach(e, parent)
	}
	return t
}

func (t *Tree) attach(e, parent *Entry) {
	e.Parent = parent
	if parent == nil {
		t.Roots = append(t.Roots, e)
	} else {
		parent.Children = append(parent.Children, e)
	}
	t.entries = append(t.entries, e)
}

// Entries returns every entry in document order.
func (t *Tree) Entries() []*Entry {
	return t.entries
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Find returns the first entry with the given id, or nil.
func (t *Tree) Find(id string) *Entry {
	for _, e := range t.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Ancestors returns the enclosing entries of e, outermost first.
func (t *Tree) Ancestors(e *Entry) []*Entry {
	var out []*Entry
	for p := e.Parent; p != nil; p = p.Parent {
		out = append([]*Entry{p}, out...)
	}
	return out
}

// Expand highlights active, expands it and its ancestors and collapses every
// other entry. It returns the ids of the expanded entries, outermost first.
// A nil active collapses everything.
func (t *Tree) Expand(active *Entry) []string {
	for _, e := range t.entries {
		e.Expanded = false
		e.Highlighted = false
	}
	if active == nil {
		return nil
	}
	active.Highlighted = true
	var ids []string
	for e := active; e != nil; e = e.Parent {
		e.Expanded = true
		ids = append([]string{e.ID}, ids...)
	}
	return ids
}

// Active returns the highlighted entry, or nil.
func (t *Tree) Active() *Entry {
	for _, e := range t.entries {
		if e.Highlighted {
			return e
		}
	}
	return nil
}

// ToHTML renders the tree as nested lists, in the class vocabulary the page
// script and stylesheet expect.
func (t *Tree) ToHTML() string {
	var b strings.Builder
	for i, root := range t.Roots {
		fmt.Fprintf(&b, `<ul class="tocify-header" id="tocify-header-%d">`+"\n", i)
		renderEntry(&b, root)
		b.WriteString("</ul>\n")
	}
	return b.String()
}

func renderEntry(b *strings.Builder, e *Entry) {
	classes := "tocify-item"
	if e.Highlighted {
		classes += " active"
	}
	fmt.Fprintf(b, `<li class="%s" data-unique="%s"><a href="#%s">%s</a></li>`+"\n",
		classes, html.EscapeString(e.ID), html.EscapeString(e.ID), html.EscapeString(e.Text))
	if len(e.Children) == 0 {
		return
	}
	open := ""
	if e.Expanded {
		open = " open"
	}
	fmt.Fprintf(b, `<ul class="tocify-subheader%s" data-tag="%d">`+"\n", open, e.Level+1)
	for _, c := range e.Children {
		renderEntry(b, c)
	}
	b.WriteString("</ul>\n")
}

// Record is the serialized form of an entry, used in the site's outline
// index. Parent is the index of the parent record, or -1.
type Record struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Level  int    `json:"level"`
	Parent int    `json:"parent"`
}

// Records flattens the tree in document order.
func (t *Tree) Records() []Record {
	out := make([]Record, len(t.entries))
	for i, e := range t.entries {
		parent := -1
		if e.Parent != nil {
			parent = e.Parent.Index
		}
		out[i] = Record{ID: e.ID, Text: e.Text, Level: int(e.Level), Parent: parent}
	}
	return out
}

// FromRecords rebuilds a tree from its flattened form.
func FromRecords(records []Record) (*Tree, error) {
	t := &Tree{}
	for i, r := range records {
		if r.Parent >= i {
			return nil, fmt.Errorf("record %d: parent %d does not precede it", i, r.Parent)
		}
		e := &Entry{ID: r.ID, Text: r.Text, Level: anchor.Level(r.Level), Index: i}
		var parent *Entry
		if r.Parent >= 0 {
			parent = t.entries[r.Parent]
		}
		t.attach(e, parent)
	}
	return t, nil
}
