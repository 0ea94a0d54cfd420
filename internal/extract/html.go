package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Document is readable text pulled out of an HTML page.
type Document struct {
	Title string
	Text  string
}

// HTML extracts the main article text of a page with readability, falling
// back to the visible text of the whole body when no article is found.
// pageURL may be nil.
func HTML(r io.Reader, pageURL *url.URL) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read html: %w", err)
	}
	if pageURL == nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return Document{
			Title: strings.TrimSpace(article.Title),
			Text:  Normalize(article.TextContent),
		}, nil
	}

	return stripHTML(raw)
}

// stripHTML returns the visible body text, without scripts and styles.
func stripHTML(raw []byte) (Document, error) {
	root, err := dom.Parse(bytes.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse html: %w", err)
	}

	dom.RemoveNodes(dom.GetAllNodesWithTag(root, "script", "style", "noscript", "template"), nil)

	var title string
	if t := dom.QuerySelector(root, "title"); t != nil {
		title = strings.TrimSpace(dom.TextContent(t))
	}

	body := dom.QuerySelector(root, "body")
	if body == nil {
		body = root
	}
	return Document{Title: title, Text: Normalize(blockText(body))}, nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
}

// blockText collects text nodes, separating block elements with newlines.
func blockText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
			return
		case html.ElementNode:
			if dom.HasAttribute(n, "hidden") {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return b.String()
}
