package parser

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// decode converts raw page bytes to UTF-8 using the Content-Type header,
// a <meta charset> declaration or content sniffing. If the decoder fails
// the raw bytes are returned unchanged.
func decode(raw []byte, contentType string) []byte {
	if contentType == "" {
		contentType = "text/html"
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return raw
	}
	return decoded
}

// parseDocument builds a DOM from markup with every comment node removed.
// html.Parse recovers from malformed markup; if it still fails an empty
// document is returned so extraction degrades to defaults.
func parseDocument(markup []byte) *html.Node {
	root, err := html.Parse(bytes.NewReader(markup))
	if err != nil {
		root, _ = html.Parse(strings.NewReader(""))
	}
	stripComments(root)
	return root
}

func stripComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripComments(c)
		}
		c = next
	}
}

// invisible holds elements whose text is not rendered.
var invisible = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// visibleText joins every rendered text node of n with single spaces.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if invisible[n.Data] {
				return
			}
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
