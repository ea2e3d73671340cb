package snippet

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/net/html"

	"github.com/gnana997/iconpark/pkg/parser"
)

// ErrMalformed means a snippet failed verification.
var ErrMalformed = errors.New("malformed snippet")

// Report describes the component usage found in a snippet.
type Report struct {
	Framework Framework       `json:"framework"`
	Component string          `json:"component"`
	Package   string          `json:"package"`
	Props     map[string]Prop `json:"props"`
}

// Verifier parses snippets with tree-sitter.
type Verifier struct {
	parsers *parser.Manager
}

// NewVerifier creates a Verifier using pm. The caller keeps ownership of pm.
func NewVerifier(pm *parser.Manager) *Verifier {
	return &Verifier{parsers: pm}
}

// Verify parses code for framework f and checks that it uses exactly one
// icon component imported from the framework's icon package.
func (v *Verifier) Verify(f Framework, code string) (*Report, error) {
	switch f {
	case React:
		return v.verifyReact(code)
	case Vue:
		return v.verifyVue(code)
	default:
		return nil, fmt.Errorf("unknown framework %q", f)
	}
}

func (v *Verifier) verifyReact(code string) (*Report, error) {
	source := []byte(code)
	ext, err := v.extract(source, parser.GrammarTSX)
	if err != nil {
		return nil, err
	}
	if len(ext.usages) != 1 {
		return nil, fmt.Errorf("%w: want one component element, found %d", ErrMalformed, len(ext.usages))
	}
	usage := ext.usages[0]
	if err := checkImport(ext.imports, ReactPackage, usage.Component); err != nil {
		return nil, err
	}
	return &Report{Framework: React, Component: usage.Component, Package: ReactPackage, Props: usage.Props}, nil
}

func (v *Verifier) verifyVue(code string) (*Report, error) {
	template, ok := section(code, "template")
	if !ok {
		return nil, fmt.Errorf("%w: missing <template> block", ErrMalformed)
	}
	script, ok := section(code, "script")
	if !ok {
		return nil, fmt.Errorf("%w: missing <script> block", ErrMalformed)
	}

	component, props, err := templateElement(template)
	if err != nil {
		return nil, err
	}

	source := []byte(script)
	tree, err := v.parse(source, parser.GrammarJavaScript)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	ext := extractJSX(tree, source)
	if err := checkImport(ext.imports, VuePackage, component); err != nil {
		return nil, err
	}
	if !slices.Contains(registeredComponents(tree.RootNode(), source), component) {
		return nil, fmt.Errorf("%w: %s is not registered in components", ErrMalformed, component)
	}
	return &Report{Framework: Vue, Component: component, Package: VuePackage, Props: props}, nil
}

func (v *Verifier) parse(source []byte, g parser.Grammar) (*ts.Tree, error) {
	tree, err := v.parsers.Parse(source, g)
	if err != nil {
		return nil, err
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, fmt.Errorf("%w: %s syntax error", ErrMalformed, g)
	}
	return tree, nil
}

func (v *Verifier) extract(source []byte, g parser.Grammar) (*extraction, error) {
	tree, err := v.parse(source, g)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return extractJSX(tree, source), nil
}

func checkImport(imports []Import, pkg, component string) error {
	for _, imp := range imports {
		if imp.Source == pkg && slices.Contains(imp.Names, component) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not imported from %s", ErrMalformed, component, pkg)
}

// section returns the body between <tag> and the last </tag>.
func section(code, tag string) (string, bool) {
	open, closing := "<"+tag+">", "</"+tag+">"
	start := strings.Index(code, open)
	end := strings.LastIndex(code, closing)
	if start < 0 || end < start+len(open) {
		return "", false
	}
	return code[start+len(open) : end], true
}

// templateElement returns the first element of a Vue template. Attribute
// keys are lower-cased by the HTML tokenizer; the component name keeps its
// source casing.
func templateElement(template string) (string, map[string]Prop, error) {
	z := html.NewTokenizer(strings.NewReader(template))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", nil, fmt.Errorf("%w: no component element in <template>", ErrMalformed)
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			name := strings.TrimPrefix(raw, "<")
			if i := strings.IndexAny(name, " \t\r\n/>"); i >= 0 {
				name = name[:i]
			}
			props := make(map[string]Prop)
			_, more := z.TagName()
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				k := string(key)
				prop := Prop{Value: string(val)}
				if strings.HasPrefix(k, ":") {
					k = strings.TrimPrefix(k, ":")
					prop.Expression = true
				}
				props[k] = prop
			}
			if !isComponentName(name) {
				return "", nil, fmt.Errorf("%w: <%s> is not a component", ErrMalformed, name)
			}
			return name, props, nil
		}
	}
}

// registeredComponents returns the shorthand entries of every
// `components: { ... }` object in the script.
func registeredComponents(node *ts.Node, source []byte) []string {
	var names []string
	var walk func(n *ts.Node)
	walk = func(n *ts.Node) {
		if n.Kind() == "pair" {
			key := n.ChildByFieldName("key")
			value := n.ChildByFieldName("value")
			if key != nil && value != nil && key.Utf8Text(source) == "components" && value.Kind() == "object" {
				for i := uint(0); i < value.ChildCount(); i++ {
					entry := value.Child(i)
					switch entry.Kind() {
					case "shorthand_property_identifier":
						names = append(names, entry.Utf8Text(source))
					case "pair":
						if k := entry.ChildByFieldName("key"); k != nil {
							names = append(names, k.Utf8Text(source))
						}
					}
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return names
}
