package site

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// PageTree is a node of the page navigation shown above the TOC.
type PageTree struct {
	Name     string
	Title    string // H1 text for pages, formatted name for sections.
	Path     string // HTML path for pages, directory path for sections.
	IsDir    bool
	Children []*PageTree
}

// BuildPageTree groups html page paths by directory. titles maps a page path
// to its display title; pages without one show their file name.
func BuildPageTree(paths []string, titles map[string]string) *PageTree {
	root := &PageTree{IsDir: true}
	for _, p := range paths {
		parts := strings.Split(p, "/")
		node := root
		for i, part := range parts[:len(parts)-1] {
			node = node.child(part, strings.Join(parts[:i+1], "/"))
		}
		title := titles[p]
		if title == "" {
			title = strings.TrimSuffix(parts[len(parts)-1], ".html")
		}
		node.Children = append(node.Children, &PageTree{Name: parts[len(parts)-1], Title: title, Path: p})
	}
	root.sort()
	return root
}

func (t *PageTree) child(name, path string) *PageTree {
	for _, c := range t.Children {
		if c.IsDir && c.Name == name {
			return c
		}
	}
	c := &PageTree{Name: name, Title: formatDirName(name), Path: path, IsDir: true}
	t.Children = append(t.Children, c)
	return c
}

// sort orders pages before sections, index.html first, then by name.
func (t *PageTree) sort() {
	sort.SliceStable(t.Children, func(i, j int) bool {
		a, b := t.Children[i], t.Children[j]
		if a.IsDir != b.IsDir {
			return !a.IsDir
		}
		if (a.Name == "index.html") != (b.Name == "index.html") {
			return a.Name == "index.html"
		}
		return a.Name < b.Name
	})
	for _, c := range t.Children {
		if c.IsDir {
			c.sort()
		}
	}
}

// ToHTML renders the navigation for the page at activePath. basePath leads
// back to the site root.
func (t *PageTree) ToHTML(activePath, basePath string) string {
	var b strings.Builder
	t.render(&b, activePath, basePath)
	return b.String()
}

func (t *PageTree) render(b *strings.Builder, activePath, basePath string) {
	if len(t.Children) == 0 {
		return
	}
	b.WriteString(`<ul class="toc-pages">`)
	for _, c := range t.Children {
		if c.IsDir {
			open := ""
			if strings.HasPrefix(activePath, c.Path+"/") {
				open = " open"
			}
			fmt.Fprintf(b, `<li class="toc-section%s"><span>%s</span>`, open, html.EscapeString(c.Title))
			c.render(b, activePath, basePath)
			b.WriteString("</li>")
			continue
		}
		active := ""
		if c.Path == activePath {
			active = ` class="active"`
		}
		fmt.Fprintf(b, `<li%s><a href="%s%s">%s</a></li>`, active, basePath, c.Path, html.EscapeString(c.Title))
	}
	b.WriteString("</ul>")
}

// mdPathToHTML converts a markdown path to its HTML equivalent.
func mdPathToHTML(p string) string {
	for _, ext := range []string{".md", ".markdown", ".MD"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext) + ".html"
		}
	}
	return p
}

// formatDirName title-cases a directory slug: "getting-started" -> "Getting Started".
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
