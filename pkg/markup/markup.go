// Package markup parses, rewrites, and checks SVG icon markup.
//
// Markup is parsed with golang.org/x/net/html, which places <svg> in the
// SVG foreign-content namespace and restores camel-cased attribute names
// such as viewBox. Every call works on a fresh tree, so the caller's input
// is never mutated.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	// SVGNamespace is the value written to the root xmlns attribute.
	SVGNamespace = "http://www.w3.org/2000/svg"

	// DefaultViewBox is applied when the root element has none.
	DefaultViewBox = "0 0 48 48"

	// MinLength is the shortest markup Validate accepts.
	MinLength = 50

	// XMLDeclaration is prepended to standalone SVG documents.
	XMLDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
)

var (
	// ErrNoSVG means the input contains no <svg> element.
	ErrNoSVG = errors.New("no <svg> element")

	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("invalid svg markup")
)

// Parse parses src and returns its first <svg> element.
func Parse(src []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	svg := findSVG(doc)
	if svg == nil {
		return nil, ErrNoSVG
	}
	return svg, nil
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findSVG(c); found != nil {
			return found
		}
	}
	return nil
}

// Render serializes n and its descendants.
func Render(n *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return nil, fmt.Errorf("failed to render markup: %w", err)
	}
	return buf.Bytes(), nil
}

// Walk calls fn for n and every element below it, depth first.
func Walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Attr returns the value of the un-namespaced attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key to val, replacing an existing value in place.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes every un-namespaced attribute named key.
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Normalize produces standalone markup from src: width and height are set
// to size, class and style are removed from every element, and xmlns and
// viewBox are added to the root when missing.
func Normalize(src []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid size %d", size)
	}
	svg, err := Parse(src)
	if err != nil {
		return nil, err
	}

	dim := strconv.Itoa(size)
	SetAttr(svg, "width", dim)
	SetAttr(svg, "height", dim)

	Walk(svg, func(n *html.Node) {
		RemoveAttr(n, "class")
		RemoveAttr(n, "style")
	})

	if v, ok := Attr(svg, "xmlns"); !ok || v == "" {
		SetAttr(svg, "xmlns", SVGNamespace)
	}
	if v, ok := Attr(svg, "viewBox"); !ok || strings.TrimSpace(v) == "" {
		SetAttr(svg, "viewBox", DefaultViewBox)
	}

	return Render(svg)
}

// Validate rejects markup that is empty, shorter than MinLength, or has no
// <svg tag.
func Validate(markup []byte) error {
	switch {
	case len(markup) == 0:
		return fmt.Errorf("%w: empty", ErrInvalid)
	case len(markup) < MinLength:
		return fmt.Errorf("%w: %d bytes is shorter than %d", ErrInvalid, len(markup), MinLength)
	case !bytes.Contains(markup, []byte("<svg")):
		return fmt.Errorf("%w: no <svg tag", ErrInvalid)
	}
	return nil
}

// WithXMLDeclaration returns markup prefixed by XMLDeclaration unless it
// already starts with an XML declaration.
func WithXMLDeclaration(markup []byte) []byte {
	if bytes.HasPrefix(bytes.TrimSpace(markup), []byte("<?xml")) {
		return markup
	}
	out := make([]byte, 0, len(XMLDeclaration)+len(markup))
	out = append(out, XMLDeclaration...)
	return append(out, markup...)
}
