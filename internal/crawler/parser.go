package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ParseResult contains the information extracted from an HTML document.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Content is the rendered <head> element followed by the rendered <body>.
	Content string

	// Links are unique root-relative hrefs in document order.
	Links []string
}

// ParseDocument parses an HTML document. golang.org/x/net/html always
// synthesizes <head> and <body>, so Content is never empty for valid input.
func ParseDocument(r io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links: make([]string, 0),
	}

	var head, body *html.Node
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head":
				if head == nil {
					head = n
				}
			case "body":
				if body == nil {
					body = n
				}
			case "title":
				if result.Title == "" {
					result.Title = strings.TrimSpace(textOf(n))
				}
			case "a":
				if link, ok := normalizeLink(getAttr(n, "href")); ok && !seen[link] {
					seen[link] = true
					result.Links = append(result.Links, link)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var content strings.Builder
	for _, n := range []*html.Node{head, body} {
		if n == nil {
			continue
		}
		if err := html.Render(&content, n); err != nil {
			return nil, err
		}
	}
	result.Content = content.String()

	return result, nil
}

// normalizeLink accepts hrefs beginning with a single "/" and strips the fragment.
func normalizeLink(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if !strings.HasPrefix(href, "/") || strings.HasPrefix(href, "//") {
		return "", false
	}

	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	if href == "" {
		return "", false
	}
	return href, true
}

// textOf concatenates the text nodes beneath n.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// getAttr returns the value of an attribute, or "" if absent.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
