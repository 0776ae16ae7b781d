package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML tree.
type Document struct {
	root *html.Node
}

// Element is a single element node within a Document.
type Element struct {
	node *html.Node
}

// Parse reads and parses HTML from r. The parser is tolerant: real-world
// markup with unclosed or misnested tags still yields a tree.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// Render serializes the document back to HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

// Anchors returns every <a> element that carries an href attribute.
func (d *Document) Anchors() []*Element {
	return d.elements(func(n *html.Node) bool {
		return n.Data == "a" && hasAttr(n, "href")
	})
}

// Stylesheets returns every <link> element whose rel attribute contains
// the stylesheet token and that carries a non-empty href.
func (d *Document) Stylesheets() []*Element {
	return d.elements(func(n *html.Node) bool {
		if n.Data != "link" || getAttr(n, "href") == "" {
			return false
		}
		for _, rel := range strings.Fields(getAttr(n, "rel")) {
			if strings.EqualFold(rel, "stylesheet") {
				return true
			}
		}
		return false
	})
}

// Images returns every <img> element. Elements without src or srcset are
// included; callers decide what counts as a downloadable reference.
func (d *Document) Images() []*Element {
	return d.elements(func(n *html.Node) bool {
		return n.Data == "img"
	})
}

// Scripts returns every <script> element with a non-empty src attribute.
// Inline scripts have no external reference and are left alone.
func (d *Document) Scripts() []*Element {
	return d.elements(func(n *html.Node) bool {
		return n.Data == "script" && getAttr(n, "src") != ""
	})
}

// elements walks the tree depth-first and collects element nodes matching
// the predicate, in document order.
func (d *Document) elements(match func(*html.Node) bool) []*Element {
	var found []*Element

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			found = append(found, &Element{node: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	return found
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute, or "" if absent.
func (e *Element) Attr(name string) string {
	return getAttr(e.node, name)
}

// HasAttr reports whether the named attribute is present, even if empty.
func (e *Element) HasAttr(name string) bool {
	return hasAttr(e.node, name)
}

// SetAttr sets the named attribute, adding it if absent.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes the named attribute if present.
func (e *Element) RemoveAttr(name string) {
	kept := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != name {
			kept = append(kept, a)
		}
	}
	e.node.Attr = kept
}

// getAttr returns the value of the named attribute of n. The parser
// lowercases attribute keys, so lookups use the lowercase name.
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr reports whether n carries the named attribute.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
