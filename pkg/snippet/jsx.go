package snippet

import (
	"strings"
	"unicode"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Prop is one attribute of a component usage.
type Prop struct {
	// Value is the string literal, or the source text of an expression
	// without its braces.
	Value      string `json:"value"`
	Expression bool   `json:"expression,omitempty"`
}

// Usage is a component element found in a snippet.
type Usage struct {
	Component string          `json:"component"`
	Props     map[string]Prop `json:"props"`
	Line      int             `json:"line"` // 1-based
}

// Import is an import statement found in a snippet.
type Import struct {
	Source string   `json:"source"`
	Names  []string `json:"names"`
	Line   int      `json:"line"`
}

type extraction struct {
	usages  []Usage
	imports []Import
}

// extractJSX collects top-level imports and every component element.
func extractJSX(tree *ts.Tree, source []byte) *extraction {
	result := &extraction{}
	root := tree.RootNode()
	extractImports(root, source, result)
	walkJSX(root, source, result)
	return result
}

func extractImports(node *ts.Node, source []byte, result *extraction) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "import_statement" {
			continue
		}
		info := Import{Line: int(child.StartPosition().Row) + 1}
		for j := uint(0); j < child.ChildCount(); j++ {
			part := child.Child(j)
			switch part.Kind() {
			case "string":
				info.Source = stringContent(part, source)
			case "import_clause":
				importNames(part, source, &info)
			}
		}
		if info.Source != "" {
			result.imports = append(result.imports, info)
		}
	}
}

func importNames(clause *ts.Node, source []byte, info *Import) {
	for i := uint(0); i < clause.ChildCount(); i++ {
		named := clause.Child(i)
		if named.Kind() != "named_imports" {
			continue
		}
		for j := uint(0); j < named.ChildCount(); j++ {
			spec := named.Child(j)
			if spec.Kind() != "import_specifier" {
				continue
			}
			if id := spec.ChildByFieldName("name"); id != nil {
				info.Names = append(info.Names, id.Utf8Text(source))
			}
		}
	}
}

func stringContent(node *ts.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

func walkJSX(node *ts.Node, source []byte, result *extraction) {
	switch node.Kind() {
	case "jsx_self_closing_element":
		addUsage(node, node, source, result)
		return
	case "jsx_element":
		if open := node.ChildByFieldName("open_tag"); open != nil {
			addUsage(node, open, source, result)
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkJSX(node.Child(i), source, result)
	}
}

func addUsage(element, tag *ts.Node, source []byte, result *extraction) {
	name, props := tagAndProps(tag, source)
	if !isComponentName(name) {
		return
	}
	result.usages = append(result.usages, Usage{
		Component: name,
		Props:     props,
		Line:      int(element.StartPosition().Row) + 1,
	})
}

func tagAndProps(node *ts.Node, source []byte) (string, map[string]Prop) {
	var name string
	props := make(map[string]Prop)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier", "member_expression", "nested_identifier":
			if name == "" {
				name = child.Utf8Text(source)
			}
		case "jsx_attribute":
			if key, prop, ok := attribute(child, source); ok {
				props[key] = prop
			}
		}
	}
	return name, props
}

func attribute(node *ts.Node, source []byte) (string, Prop, bool) {
	var key string
	prop := Prop{Value: "true"}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "property_identifier":
			key = child.Utf8Text(source)
		case "string":
			prop = Prop{Value: stringContent(child, source)}
		case "jsx_expression":
			text := child.Utf8Text(source)
			text = strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")
			prop = Prop{Value: strings.TrimSpace(text), Expression: true}
		}
	}
	return key, prop, key != ""
}

// isComponentName follows the JSX convention: components start upper-case.
func isComponentName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}
