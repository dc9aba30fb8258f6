package search

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nao1215/sitesearch/internal/lemma"
	"github.com/nao1215/sitesearch/internal/model"
	xhtml "golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// SegmentSeparator joins the fragments of a snippet.
const SegmentSeparator = " ... "

// snippetWord finds the words of a segment that may carry a lemma.
var snippetWord = regexp.MustCompile(`(?i)[a-zа-яё]+`)

// hiddenElements never contribute snippet text, nor do their descendants.
const hiddenElements = "script, style, noscript, template"

// snippetPolicy lets only the emphasis markup through.
var snippetPolicy = bluemonday.NewPolicy().AllowElements("b")

// snippet is the rendered match information of one page.
type snippet struct {
	title   string
	text    string
	matched int
}

// decorate loads the candidate pages and builds their results in rank
// order. Pages whose text contains no highlighted word are dropped.
func (e *Engine) decorate(ctx context.Context, candidates []*candidate, scope map[int64]*model.Site, lemmas map[string]bool) ([]model.SearchResult, error) {
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.pageID
	}
	pages, err := e.store.GetPages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	byID := make(map[int64]*model.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	snippets := make([]*snippet, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, c := range candidates {
		page, ok := byID[c.pageID]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := buildSnippet(page.Content, e.lemmatizer, lemmas, e.segments)
			if err != nil {
				return fmt.Errorf("failed to build snippet for page %d: %w", page.ID, err)
			}
			snippets[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(candidates))
	for i, c := range candidates {
		s := snippets[i]
		if s == nil || s.matched == 0 {
			continue
		}
		page := byID[c.pageID]
		site := scope[page.SiteID]
		if site == nil {
			continue
		}
		results = append(results, model.SearchResult{
			Site:         site.URL,
			SiteName:     site.Name,
			URI:          page.Path,
			Title:        s.title,
			Snippet:      s.text,
			Relevance:    c.relative,
			MatchedWords: s.matched,
		})
	}
	return results, nil
}

// buildSnippet extracts the title of content and up to limit text segments
// containing a word whose lemma is in lemmas, with those words wrapped in <b>.
// An element whose own text matches is widened to its enclosing block, and
// the segment is the visible text of that block.
func buildSnippet(content string, l *lemma.Lemmatizer, lemmas map[string]bool, limit int) (*snippet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	s := &snippet{title: strings.TrimSpace(doc.Find("title").First().Text())}
	segments := make([]string, 0, limit)
	emitted := make(map[*xhtml.Node]bool)

	doc.Find("body, body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Closest(hiddenElements).Length() > 0 {
			return true
		}
		text := ownText(sel.Nodes[0])
		if text == "" {
			return true
		}
		if _, matched := highlight(text, l, lemmas); matched == 0 {
			return true
		}

		block := enclosingBlock(sel.Nodes[0])
		if insideEmitted(block, emitted) {
			return true
		}
		// The body keeps its own text so one stray word does not pull in
		// the whole page.
		if block.Data != "body" {
			text = visibleText(block)
			emitted[block] = true
		}

		marked, matched := highlight(text, l, lemmas)
		if matched == 0 {
			return true
		}
		segments = append(segments, marked)
		s.matched += matched
		return len(segments) < limit
	})

	s.text = snippetPolicy.Sanitize(strings.Join(segments, SegmentSeparator))
	return s, nil
}

// inlineElements flow within the text of their parent.
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "font": true, "i": true,
	"kbd": true, "label": true, "mark": true, "q": true, "s": true, "samp": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true, "var": true,
}

// hiddenTags mirrors hiddenElements for raw node walks.
var hiddenTags = map[string]bool{"script": true, "style": true, "noscript": true, "template": true}

// enclosingBlock climbs from an inline element to the nearest ancestor that
// is not inline, stopping at the body.
func enclosingBlock(n *xhtml.Node) *xhtml.Node {
	for inlineElements[n.Data] && n.Parent != nil && n.Parent.Type == xhtml.ElementNode {
		n = n.Parent
	}
	return n
}

// insideEmitted reports whether n or one of its ancestors is already part of
// a segment.
func insideEmitted(n *xhtml.Node, emitted map[*xhtml.Node]bool) bool {
	for ; n != nil; n = n.Parent {
		if emitted[n] {
			return true
		}
	}
	return false
}

// ownText returns the whitespace-collapsed text of the direct text children
// of n.
func ownText(n *xhtml.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xhtml.TextNode {
			b.WriteString(child.Data)
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// visibleText returns the whitespace-collapsed text of n and its
// descendants, without hidden elements. Block children are set apart by
// spaces so their words do not run together.
func visibleText(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xhtml.TextNode:
				b.WriteString(child.Data)
			case xhtml.ElementNode:
				if hiddenTags[child.Data] {
					continue
				}
				inline := inlineElements[child.Data]
				if !inline {
					b.WriteByte(' ')
				}
				walk(child)
				if !inline {
					b.WriteByte(' ')
				}
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// highlight escapes text and wraps every word whose lemma is in lemmas.
func highlight(text string, l *lemma.Lemmatizer, lemmas map[string]bool) (string, int) {
	var b strings.Builder
	matched := 0
	last := 0
	for _, loc := range snippetWord.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		if !lemmas[l.LemmaOf(word)] {
			continue
		}
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString("<b>")
		b.WriteString(html.EscapeString(word))
		b.WriteString("</b>")
		last = loc[1]
		matched++
	}
	if matched == 0 {
		return "", 0
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String(), matched
}
