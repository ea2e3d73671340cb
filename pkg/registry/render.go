package registry

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"

	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/style"
)

// canonicalSlots maps the normalized source colors to palette slots.
var canonicalSlots = func() map[string]int {
	slots := map[string]int{}
	for i, c := range []string{style.DefaultStroke, style.DefaultAccent, style.DefaultInnerStroke, style.DefaultInnerFill} {
		slots[normalizeColor(c)] = i
	}
	return slots
}()

type renderKey struct {
	identifier string
	style      string
}

// Renderer produces styled markup for one icon.
type Renderer struct {
	Name       string
	Identifier string

	source []byte
	memo   *lru.Cache[renderKey, []byte]
}

// Source returns a copy of the unstyled icon source.
func (r *Renderer) Source() []byte {
	return append([]byte(nil), r.source...)
}

// Render applies cfg to the icon source.
//
// Fill and stroke values written in the source palette are replaced by the
// theme palette of cfg. Existing stroke-width, stroke-linecap, and
// stroke-linejoin attributes take the configured values, and the root
// width and height become cfg.Size.
func (r *Renderer) Render(cfg style.Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := renderKey{identifier: r.Identifier, style: cfg.Key()}
	if r.memo != nil {
		if out, ok := r.memo.Get(key); ok {
			return append([]byte(nil), out...), nil
		}
	}

	svg, err := markup.Parse(r.source)
	if err != nil {
		return nil, err
	}

	palette := cfg.Palette()
	width := strconv.Itoa(cfg.StrokeWidth)
	markup.Walk(svg, func(n *html.Node) {
		for i := range n.Attr {
			a := &n.Attr[i]
			if a.Namespace != "" {
				continue
			}
			switch a.Key {
			case "fill", "stroke":
				if slot, ok := canonicalSlots[normalizeColor(a.Val)]; ok {
					a.Val = palette[slot]
				}
			case "stroke-width":
				a.Val = width
			case "stroke-linecap":
				a.Val = string(cfg.LineCap)
			case "stroke-linejoin":
				a.Val = string(cfg.LineJoin)
			}
		}
	})

	size := strconv.Itoa(cfg.Size)
	markup.SetAttr(svg, "width", size)
	markup.SetAttr(svg, "height", size)

	out, err := markup.Render(svg)
	if err != nil {
		return nil, err
	}
	if r.memo != nil {
		r.memo.Add(key, out)
		out = append([]byte(nil), out...)
	}
	return out, nil
}

// normalizeColor returns the 6-digit lowercase hex form of v, or v
// unchanged when it is not a hex color.
func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	c, err := colorful.Hex(v)
	if err != nil {
		return v
	}
	return c.Hex()
}
