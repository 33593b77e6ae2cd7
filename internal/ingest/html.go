package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose text never belongs to the contract body
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "button": true, "svg": true, "head": true,
}

// Elements that end a line of text
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"li": true, "ol": true, "ul": true, "br": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "dd": true, "dt": true,
}

// HTMLExtractor pulls visible contract text out of HTML documents,
// preferring the main content region when the page marks one
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Name returns the format name
func (e *HTMLExtractor) Name() string {
	return "html"
}

// CanHandle accepts .html/.htm files and HTML responses
func (e *HTMLExtractor) CanHandle(name string, contentType string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}

// Extract parses the document and returns its visible text
func (e *HTMLExtractor) Extract(raw []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "main"
	})
	if root == nil {
		root = findFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode &&
				(n.Data == "article" || getAttribute(n, "role") == "main")
		})
	}
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	visibleText(root, &buf)
	return strings.TrimSpace(buf.String()), nil
}

func visibleText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] || getAttribute(n, "hidden") != "" || getAttribute(n, "aria-hidden") == "true" {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, buf)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		buf.WriteString("\n")
	}
}

// getAttribute gets an attribute value from a node
func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			if attr.Val == "" {
				return key
			}
			return attr.Val
		}
	}
	return ""
}

// findFirst finds the first node, in document order, matching a predicate
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
