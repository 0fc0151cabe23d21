// Package embed renders Mermaid blocks found inside HTML pages and splices the
// resulting SVG back into each block.
//
// Blocks are located with a CSS selector (".mermaid" by default). A block that
// already carries the "svg" class was rendered on an earlier pass and is left
// alone. All blocks of all pages passed to one Process call form a single
// batch, so the concurrency bound applies across pages.
//
// A block whose render fails is not modified, and a page with no rendered
// blocks is returned byte for byte.
package embed

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aryankumar/mermaidfleet/internal/executor"
	"github.com/aryankumar/mermaidfleet/internal/render"
)

const (
	// DefaultSelector matches the blocks produced by most Markdown renderers
	DefaultSelector = ".mermaid"

	// RenderedClass marks a block whose content has been replaced by SVG
	RenderedClass = "svg"
)

// Page is one HTML document to process
type Page struct {
	Name string
	HTML []byte
}

// PageResult is the outcome for one page
type PageResult struct {
	Name string `json:"name" yaml:"name"`

	// HTML is the page content; identical to the input when Changed is false
	HTML []byte `json:"-" yaml:"-"`

	// Changed reports whether at least one block was replaced
	Changed bool `json:"changed" yaml:"changed"`

	Rendered int `json:"rendered" yaml:"rendered"`
	Failed   int `json:"failed" yaml:"failed"`
	Skipped  int `json:"skipped" yaml:"skipped"`

	// Err is set when the page could not be parsed or serialized
	Err error `json:"-" yaml:"-"`
}

// Option configures an Embedder
type Option func(*Embedder)

// WithSelector sets the CSS selector used to find diagram blocks
func WithSelector(selector string) Option {
	return func(e *Embedder) {
		if selector != "" {
			e.selector = selector
		}
	}
}

// Embedder renders diagram blocks embedded in HTML
type Embedder struct {
	cfg      render.Config
	renderer executor.Renderer
	selector string
	logger   *slog.Logger

	// results of the last batch, for reporting
	lastResults []executor.Result
}

// NewEmbedder creates an embedder that renders blocks through r
func NewEmbedder(cfg render.Config, r executor.Renderer, logger *slog.Logger, opts ...Option) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Embedder{
		cfg:      cfg,
		renderer: r,
		selector: DefaultSelector,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Selector returns the CSS selector in use
func (e *Embedder) Selector() string {
	return e.selector
}

// Results returns the per-block results of the last Process call
func (e *Embedder) Results() []executor.Result {
	return e.lastResults
}

// block is a located diagram block awaiting its render result
type block struct {
	page int
	sel  *goquery.Selection
}

// Process renders the diagram blocks of every page.
// It returns one PageResult per page, in input order. The returned error is
// reserved for contract violations (duplicate page names, invalid configuration);
// render failures are reported per page.
func (e *Embedder) Process(ctx context.Context, pages []Page) ([]PageResult, error) {
	pool, err := executor.NewPool(e.cfg, e.renderer, e.logger)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(pages))
	for _, page := range pages {
		if names[page.Name] {
			return nil, fmt.Errorf("duplicate page name %q", page.Name)
		}
		names[page.Name] = true
	}

	results := make([]PageResult, len(pages))
	docs := make([]*goquery.Document, len(pages))
	blocks := make(map[string]block)

	for i, page := range pages {
		results[i] = PageResult{Name: page.Name, HTML: page.HTML}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
		if err != nil {
			results[i].Err = fmt.Errorf("failed to parse %s: %w", page.Name, err)
			e.logger.Error("failed to parse page", "page", page.Name, "error", err)
			continue
		}
		docs[i] = doc

		doc.Find(e.selector).Each(func(n int, s *goquery.Selection) {
			if s.HasClass(RenderedClass) {
				results[i].Skipped++
				return
			}

			id := fmt.Sprintf("%s#%d", page.Name, n)
			if err := pool.Submit(render.Request{ID: id, Input: strings.NewReader(s.Text())}); err != nil {
				results[i].Failed++
				e.logger.Error("failed to submit block", "id", id, "error", err)
				return
			}
			blocks[id] = block{page: i, sel: s}
		})
	}

	if len(blocks) == 0 {
		e.lastResults = nil
		return results, nil
	}

	e.logger.Debug("rendering embedded blocks", "pages", len(pages), "blocks", len(blocks), "selector", e.selector)

	batch := pool.Execute(ctx)
	e.lastResults = batch

	for _, res := range batch {
		b, ok := blocks[res.ID]
		if !ok {
			continue
		}

		if res.Error != nil {
			results[b.page].Failed++
			continue
		}

		splice(b.sel, res.Artifact.Content)
		results[b.page].Rendered++
		results[b.page].Changed = true
	}

	for i := range results {
		if !results[i].Changed {
			continue
		}

		content, err := docs[i].Html()
		if err != nil {
			// Keep the original content rather than emit a partial page
			results[i].HTML = pages[i].HTML
			results[i].Changed = false
			results[i].Err = fmt.Errorf("failed to serialize %s: %w", pages[i].Name, err)
			e.logger.Error("failed to serialize page", "page", pages[i].Name, "error", err)
			continue
		}
		results[i].HTML = []byte(content)
	}

	return results, nil
}

// splice replaces the block's content with the SVG and marks it rendered
func splice(s *goquery.Selection, svg string) {
	s.SetHtml(svg)
	s.AddClass(RenderedClass)
	// AddClass can leave doubled separators behind
	s.SetAttr("class", strings.Join(strings.Fields(s.AttrOr("class", "")), " "))
	// xmlns:xlink is XHTML and trips up HTML minifiers
	for _, n := range s.Children().First().Nodes {
		removeXLinkNamespace(n)
	}
}

// removeXLinkNamespace drops the xmlns:xlink declaration from n.
// The HTML parser stores it on foreign elements as namespace "xmlns", key "xlink".
func removeXLinkNamespace(n *html.Node) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if (a.Namespace == "xmlns" && a.Key == "xlink") || a.Key == "xmlns:xlink" {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}
