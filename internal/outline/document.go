// Package outline indexes the headings of a rendered page and builds the
// navigable TOC tree over them.
package outline

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/doctoc/internal/anchor"
)

// HashGenerator maps a heading to its anchor identifier. It is called exactly
// once per indexed heading, in document order.
type HashGenerator func(text string, h *anchor.Heading) string

// Options controls which headings are indexed.
type Options struct {
	// Selectors lists the heading tags to index. Only h1, h2 and h3 are
	// meaningful; anything else is ignored.
	Selectors []string
	// IgnoreClass excludes headings carrying this class (a leading dot is
	// accepted, as in ".toc-ignore").
	IgnoreClass string
	// HashGenerator defaults to anchor.Generator.
	HashGenerator HashGenerator
}

// DefaultOptions indexes h1-h3 and skips ".toc-ignore".
func DefaultOptions() Options {
	return Options{
		Selectors:     []string{"h1", "h2", "h3"},
		IgnoreClass:   "toc-ignore",
		HashGenerator: anchor.Generator,
	}
}

// Image is a tracked image inside the content area.
type Image struct {
	Src string
}

// Document is a parsed page body.
type Document struct {
	root     *html.Node
	nodes    []*html.Node // heading elements, parallel to Headings
	Headings []*anchor.Heading
	Images   []Image
	Pool     *anchor.Pool
}

// Parse reads an HTML fragment (the page body) and indexes its headings.
func Parse(r io.Reader, opts Options) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	if opts.HashGenerator == nil {
		opts.HashGenerator = anchor.Generator
	}
	levels := selectorLevels(opts.Selectors)
	ignore := strings.TrimPrefix(strings.TrimSpace(opts.IgnoreClass), ".")

	doc := &Document{root: root, Pool: anchor.NewPool()}
	var curH1, curH2 *anchor.Heading

	var images func(n *html.Node)
	images = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			doc.Images = append(doc.Images, Image{Src: attr(n, "src")})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			images(c)
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Img {
				doc.Images = append(doc.Images, Image{Src: attr(n, "src")})
			}
			if lvl, ok := levels[n.DataAtom]; ok && (ignore == "" || !hasClass(n, ignore)) {
				h := &anchor.Heading{
					Level: lvl,
					Text:  textContent(n),
					DomID: attr(n, "id"),
				}
				switch lvl {
				case anchor.H1:
					curH1, curH2 = h, nil
				case anchor.H2:
					if curH1 != nil {
						h.Parents = []*anchor.Heading{curH1}
					}
					curH2 = h
				case anchor.H3:
					if curH1 != nil {
						h.Parents = append(h.Parents, curH1)
					}
					if curH2 != nil {
						h.Parents = append(h.Parents, curH2)
					}
				}
				h.ID = opts.HashGenerator(h.Text, h)
				doc.Pool.Issue(h.ID)
				doc.Headings = append(doc.Headings, h)
				doc.nodes = append(doc.nodes, n)
				// Headings do not nest, but they may hold images.
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					images(c)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// InjectAnchors inserts an empty <div id=ID data-unique=ID> right before every
// indexed heading so fragment links land on the derived identifier. The id is
// left off when the heading already carries it, as H1s do, or when it is
// empty. Calling it twice is a no-op.
func (d *Document) InjectAnchors() {
	for i, n := range d.nodes {
		h := d.Headings[i]
		if prev := n.PrevSibling; prev != nil && prev.Type == html.ElementNode && attr(prev, "data-unique") == h.ID && prev.DataAtom == atom.Div {
			continue
		}
		var attrs []html.Attribute
		if h.ID != "" && h.ID != h.DomID {
			attrs = append(attrs, html.Attribute{Key: "id", Val: h.ID})
		}
		attrs = append(attrs,
			html.Attribute{Key: "data-unique", Val: h.ID},
			html.Attribute{Key: "class", Val: "toc-anchor"},
		)
		div := &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     attrs,
		}
		n.Parent.InsertBefore(div, n)
	}
}

// Render writes the fragment back out.
func (d *Document) Render(w io.Writer) error {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// String renders the fragment to a string.
func (d *Document) String() string {
	var b strings.Builder
	_ = d.Render(&b)
	return b.String()
}

func selectorLevels(selectors []string) map[atom.Atom]anchor.Level {
	levels := make(map[atom.Atom]anchor.Level)
	for _, s := range selectors {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "h1":
			levels[atom.H1] = anchor.H1
		case "h2":
			levels[atom.H2] = anchor.H2
		case "h3":
			levels[atom.H3] = anchor.H3
		}
	}
	return levels
}

// ParseSelectors splits a comma-separated selector list ("h1, h2, h3").
func ParseSelectors(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
