package parser

import (
	"fmt"
	"strings"
	"unsafe"

	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammar selects the tree-sitter grammar used to parse a snippet.
type Grammar int

const (
	// GrammarTSX is TypeScript with JSX enabled.
	GrammarTSX Grammar = iota
	// GrammarJavaScript also accepts JSX.
	GrammarJavaScript
	GrammarUnknown
)

func (g Grammar) String() string {
	switch g {
	case GrammarTSX:
		return "tsx"
	case GrammarJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// ParseGrammar converts a name such as "tsx" or "js" to a Grammar.
func ParseGrammar(name string) Grammar {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tsx", "typescript", "ts":
		return GrammarTSX
	case "javascript", "js", "jsx":
		return GrammarJavaScript
	default:
		return GrammarUnknown
	}
}

// languagePointer returns the tree-sitter language of g.
func languagePointer(g Grammar) (unsafe.Pointer, error) {
	switch g {
	case GrammarTSX:
		return ts_typescript.LanguageTSX(), nil
	case GrammarJavaScript:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported grammar: %s", g)
	}
}
