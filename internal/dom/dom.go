// Package dom wraps a parsed HTML document in a small typed node API so extraction code
// states its structural assumptions (node kind, child counts, nesting) explicitly.
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Kind classifies a node.
type Kind int

const (
	OtherNode Kind = iota
	ElementNode
	TextNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "other"
	}
}

// Document is a parsed HTML tree.
type Document struct {
	doc *goquery.Document
}

// Parse reads and parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FindAll returns every element matching the CSS selector, in document order.
func (d *Document) FindAll(selector string) []Node {
	return nodes(d.doc.Find(selector))
}

// Canonical renders the parsed tree back to HTML. Parsing normalizes markup (implied
// elements, attribute quoting, entity forms), so equal inputs always render equal output.
func (d *Document) Canonical() (string, error) {
	out, err := goquery.OuterHtml(d.doc.Selection)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out, nil
}

// Node is a single node of a Document. The zero Node is invalid.
type Node struct {
	sel *goquery.Selection
}

func nodes(sel *goquery.Selection) []Node {
	out := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, Node{sel: s})
	})
	return out
}

func single(sel *goquery.Selection) (Node, bool) {
	if sel.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: sel.First()}, true
}

func (n Node) raw() *html.Node {
	if n.sel == nil || n.sel.Length() == 0 {
		return nil
	}
	return n.sel.Get(0)
}

// IsZero reports whether n refers to no node.
func (n Node) IsZero() bool {
	return n.raw() == nil
}

// Kind returns the node kind.
func (n Node) Kind() Kind {
	r := n.raw()
	if r == nil {
		return OtherNode
	}
	switch r.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	default:
		return OtherNode
	}
}

// Tag returns the lowercase element name, or "" for non-elements.
func (n Node) Tag() string {
	if n.Kind() != ElementNode {
		return ""
	}
	return n.raw().Data
}

// Is reports whether n is an element with the given tag name.
func (n Node) Is(tag string) bool {
	return n.Kind() == ElementNode && n.raw().Data == tag
}

// Children returns all direct children, text nodes included.
func (n Node) Children() []Node {
	if n.IsZero() {
		return nil
	}
	return nodes(n.sel.Contents())
}

// ElementChildren returns the direct element children.
func (n Node) ElementChildren() []Node {
	if n.IsZero() {
		return nil
	}
	return nodes(n.sel.Children())
}

// ChildrenByTag returns the direct element children with the given tag name.
func (n Node) ChildrenByTag(tag string) []Node {
	if n.IsZero() {
		return nil
	}
	return nodes(n.sel.ChildrenFiltered(tag))
}

// Parent returns the parent node, if any.
func (n Node) Parent() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	return single(n.sel.Parent())
}

// NextElementSibling returns the next sibling that is an element.
func (n Node) NextElementSibling() (Node, bool) {
	if n.IsZero() {
		return Node{}, false
	}
	return single(n.sel.Next())
}

// Attr returns the value of an attribute.
func (n Node) Attr(name string) (string, bool) {
	if n.Kind() != ElementNode {
		return "", false
	}
	return n.sel.Attr(name)
}

// Text returns the concatenated text of n and its descendants, untrimmed.
func (n Node) Text() string {
	if n.IsZero() {
		return ""
	}
	return n.sel.Text()
}

// Find returns the descendants of n matching the CSS selector, in document order.
func (n Node) Find(selector string) []Node {
	if n.IsZero() {
		return nil
	}
	return nodes(n.sel.Find(selector))
}

// Same reports whether n and o refer to the same node.
func (n Node) Same(o Node) bool {
	return n.raw() != nil && n.raw() == o.raw()
}

// Contains reports whether o is a strict descendant of n.
func (n Node) Contains(o Node) bool {
	self, other := n.raw(), o.raw()
	if self == nil || other == nil {
		return false
	}
	for p := other.Parent; p != nil; p = p.Parent {
		if p == self {
			return true
		}
	}
	return false
}

// AncestorDepth counts the ancestors of n that are elements named tag, stopping at (and
// excluding) within. A zero within walks up to the document root.
func (n Node) AncestorDepth(tag string, within Node) int {
	r := n.raw()
	if r == nil {
		return 0
	}
	stop := within.raw()
	depth := 0
	for p := r.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			depth++
		}
	}
	return depth
}
