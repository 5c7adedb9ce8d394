package site

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ziadkadry99/doctoc/internal/anchor"
	"github.com/ziadkadry99/doctoc/internal/config"
	"github.com/ziadkadry99/doctoc/internal/ledger"
	"github.com/ziadkadry99/doctoc/internal/outline"
	"github.com/ziadkadry99/doctoc/internal/progress"
	"github.com/ziadkadry99/doctoc/internal/walker"
)

// Output file names inside the site directory.
const (
	OutlineFile = "outline.json"
	SearchFile  = "search-index.json"
	styleFile   = "style.css"
	scriptFile  = "toc.js"
)

// SocketPath is where pages expect the synchronizer websocket.
const SocketPath = "/ws/sync"

// Generator converts a markdown source tree into a static HTML site whose
// pages carry a synchronized TOC panel.
type Generator struct {
	cfg *config.Config
	log *zap.Logger
	md  goldmark.Markdown

	// Ledger, when set, records every page's anchors and reports removed
	// permalinks.
	Ledger *ledger.Store
	// Reporter, when set, receives per-page progress.
	Reporter progress.Reporter
}

// NewGenerator creates a Generator for cfg.
func NewGenerator(cfg *config.Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Generator{cfg: cfg, log: log, md: md}
}

// Report summarizes a build.
type Report struct {
	BuildID string
	Pages   int
	Anchors int
	// Diffs holds the pages whose anchors changed since the previous build.
	Diffs []ledger.Diff
	// Duplicates maps a page to the anchor ids issued more than once on it.
	Duplicates map[string][]string
}

// BrokenPermalinks counts anchors that existed in the previous build and are
// gone now.
func (r *Report) BrokenPermalinks() int {
	n := 0
	for _, d := range r.Diffs {
		n += len(d.Removed)
	}
	return n
}

// page is one rendered source before it is written out.
type page struct {
	path  string // html path relative to the site root
	title string
	doc   *outline.Document
	tree  *outline.Tree
}

// pageData holds the data passed to the HTML template for each page.
type pageData struct {
	Title       string
	ProjectName string
	Content     template.HTML
	TOC         template.HTML
	Pages       template.HTML
	BasePath    string
	Languages   string
	Client      clientConfig
}

// clientConfig is handed to toc.js.
type clientConfig struct {
	Page            string  `json:"page"`
	Socket          string  `json:"socket"`
	HighlightOffset float64 `json:"highlightOffset"`
	ScrollTo        int     `json:"scrollTo"`
	HideEffectSpeed int     `json:"hideEffectSpeed"`
}

// Generate builds the site. A page that fails to render is skipped and the
// build carries on; every failure is returned together with the report.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	files, err := walker.Walk(walker.WalkerConfig{
		RootDir:   g.cfg.SourceDir,
		Include:   g.cfg.Include,
		Exclude:   g.cfg.Exclude,
		OutputDir: g.cfg.OutputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("walking source dir: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no markdown files found in %s", g.cfg.SourceDir)
	}
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	report := &Report{Duplicates: make(map[string][]string)}
	if g.Ledger != nil {
		if report.BuildID, err = g.Ledger.BeginBuild(ctx); err != nil {
			return nil, err
		}
	}

	var errs error
	opts := OutlineOptions(g.cfg.TOC)

	if g.Reporter != nil {
		g.Reporter.Start(len(files))
	}
	var pages []*page
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}
		p, err := g.renderPage(f, opts)
		if g.Reporter != nil {
			g.Reporter.Update(i+1, f.RelPath)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rendering %s: %w", f.RelPath, err))
			continue
		}
		pages = append(pages, p)
	}
	if g.Reporter != nil {
		g.Reporter.Finish()
	}

	paths := make([]string, len(pages))
	titles := make(map[string]string, len(pages))
	for i, p := range pages {
		paths[i] = p.path
		titles[p.path] = p.title
	}
	nav := BuildPageTree(paths, titles)

	outlines := make(map[string][]outline.Record, len(pages))
	var search []SearchEntry
	for _, p := range pages {
		if err := g.writePage(tmpl, nav, p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("writing %s: %w", p.path, err))
			continue
		}
		report.Pages++
		report.Anchors += len(p.doc.Headings)
		outlines[p.path] = p.tree.Records()
		search = append(search, searchEntries(p.path, p.title, p.doc)...)

		if dups := p.doc.Pool.Duplicates(); len(dups) > 0 {
			report.Duplicates[p.path] = dups
			for _, id := range dups {
				g.log.Warn("duplicate anchor",
					zap.String("page", p.path),
					zap.String("id", id),
					zap.Int("count", p.doc.Pool.Count(id)))
			}
		}

		if g.Ledger != nil {
			diff, err := g.Ledger.Record(ctx, report.BuildID, p.path, p.doc.Headings)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("recording anchors of %s: %w", p.path, err))
				continue
			}
			if len(diff.Added) > 0 || len(diff.Removed) > 0 {
				report.Diffs = append(report.Diffs, diff)
			}
			for _, id := range diff.Removed {
				g.log.Warn("permalink removed", zap.String("page", p.path), zap.String("id", id))
			}
		}
	}

	if g.Ledger != nil {
		// Every walked file counts, so a page that failed to render keeps its
		// anchors.
		present := make([]string, len(files))
		for i, f := range files {
			present[i] = mdPathToHTML(f.RelPath)
		}
		retired, err := g.Ledger.RetireMissing(ctx, report.BuildID, present)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("retiring deleted pages: %w", err))
		}
		for _, diff := range retired {
			report.Diffs = append(report.Diffs, diff)
			g.log.Warn("page removed",
				zap.String("page", diff.Page),
				zap.Int("permalinks", len(diff.Removed)))
		}
	}

	errs = multierr.Append(errs, writeJSON(filepath.Join(g.cfg.OutputDir, OutlineFile), outlines))
	errs = multierr.Append(errs, WriteSearchIndex(search, filepath.Join(g.cfg.OutputDir, SearchFile)))
	errs = multierr.Append(errs, os.WriteFile(filepath.Join(g.cfg.OutputDir, styleFile), []byte(cssContent), 0o644))
	errs = multierr.Append(errs, os.WriteFile(filepath.Join(g.cfg.OutputDir, scriptFile), []byte(jsContent), 0o644))

	if g.Ledger != nil {
		errs = multierr.Append(errs, g.Ledger.FinishBuild(ctx, report.BuildID, report.Pages))
	}

	g.log.Info("site built",
		zap.Int("pages", report.Pages),
		zap.Int("anchors", report.Anchors),
		zap.Int("broken_permalinks", report.BrokenPermalinks()))
	return report, errs
}

// OutlineOptions maps the TOC configuration onto heading indexing options.
func OutlineOptions(c config.TOCConfig) outline.Options {
	opts := outline.DefaultOptions()
	if sel := outline.ParseSelectors(c.Selectors); len(sel) > 0 {
		opts.Selectors = sel
	}
	if c.IgnoreSelector != "" {
		opts.IgnoreClass = c.IgnoreSelector
	}
	return opts
}

// RenderMarkdown converts one markdown source into an outlined document with
// anchors injected.
func (g *Generator) RenderMarkdown(src []byte, opts outline.Options) (*outline.Document, error) {
	var buf bytes.Buffer
	pc := parser.NewContext(parser.WithIDs(newSlugIDs()))
	if err := g.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	doc, err := outline.Parse(strings.NewReader(rewriteMDLinks(buf.String())), opts)
	if err != nil {
		return nil, err
	}
	doc.InjectAnchors()
	return doc, nil
}

func (g *Generator) renderPage(f walker.FileInfo, opts outline.Options) (*page, error) {
	src, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	doc, err := g.RenderMarkdown(src, opts)
	if err != nil {
		return nil, err
	}
	p := &page{
		path: mdPathToHTML(f.RelPath),
		doc:  doc,
		tree: outline.Build(doc),
	}
	p.title = pageTitle(doc, f.RelPath)
	g.log.Debug("rendered page",
		zap.String("page", p.path),
		zap.Int("headings", len(doc.Headings)),
		zap.Int("images", len(doc.Images)))
	return p, nil
}

func (g *Generator) writePage(tmpl *template.Template, nav *PageTree, p *page) error {
	outPath := filepath.Join(g.cfg.OutputDir, filepath.FromSlash(p.path))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	basePath := strings.Repeat("../", strings.Count(p.path, "/"))
	langs := g.cfg.Languages
	if langs == nil {
		langs = []string{}
	}
	langJSON, err := json.Marshal(langs)
	if err != nil {
		return err
	}

	data := pageData{
		Title:       p.title,
		ProjectName: g.cfg.ProjectName,
		Content:     template.HTML(p.doc.String()),
		TOC:         template.HTML(p.tree.ToHTML()),
		Pages:       template.HTML(nav.ToHTML(p.path, basePath)),
		BasePath:    basePath,
		Languages:   string(langJSON),
		Client: clientConfig{
			Page:            p.path,
			Socket:          SocketPath,
			HighlightOffset: g.cfg.TOC.HighlightOffset,
			ScrollTo:        g.cfg.TOC.ScrollTo,
			HideEffectSpeed: g.cfg.TOC.HideEffectSpeedMS,
		},
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}

// pageTitle is the text of the first H1, or the file name.
func pageTitle(doc *outline.Document, relPath string) string {
	for _, h := range doc.Headings {
		if h.Level == anchor.H1 && h.Text != "" {
			return h.Text
		}
	}
	return strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
}

// rewriteMDLinks points links at other markdown pages to their HTML output.
func rewriteMDLinks(content string) string {
	r := strings.NewReplacer(
		`.md"`, `.html"`,
		`.md#`, `.html#`,
		`.markdown"`, `.html"`,
		`.markdown#`, `.html#`,
	)
	return r.Replace(content)
}
