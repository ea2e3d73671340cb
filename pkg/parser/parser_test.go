package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reactSnippet = `import { AddOne } from '@icon-park/react'

<AddOne theme="outline" size="36" strokeWidth={4} />`

func TestParseTSX(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte(reactSnippet), GrammarTSX)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
	assert.Contains(t, root.ToSexp(), "jsx_self_closing_element")
}

func TestParseJavaScript(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	src := []byte("import { AddOne } from '@icon-park/vue-next'\n\nexport default { components: { AddOne } }\n")
	tree, err := manager.Parse(src, GrammarJavaScript)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.False(t, root.HasError())
	assert.Contains(t, root.ToSexp(), "import_statement")
}

func TestParseInvalidSyntax(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	tree, err := manager.Parse([]byte("<AddOne size={ />"), GrammarTSX)
	require.NoError(t, err, "partial trees are still returned")
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}

func TestParseUnknownGrammar(t *testing.T) {
	manager := NewManager(nil)
	defer manager.Close()

	_, err := manager.Parse([]byte("x"), GrammarUnknown)
	assert.Error(t, err)
}

func TestParseGrammar(t *testing.T) {
	tests := map[string]Grammar{
		"tsx":        GrammarTSX,
		"TypeScript": GrammarTSX,
		"js":         GrammarJavaScript,
		"jsx":        GrammarJavaScript,
		"python":     GrammarUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseGrammar(in), in)
	}
	assert.Equal(t, "tsx", GrammarTSX.String())
	assert.Equal(t, "unknown", GrammarUnknown.String())
}

func TestLazyPools(t *testing.T) {
	manager := NewManagerWithPoolSize(2, nil)
	defer manager.Close()

	assert.Equal(t, 0, manager.Stats().ParsersCreated)

	tree, err := manager.Parse([]byte("const x = 1"), GrammarJavaScript)
	require.NoError(t, err)
	tree.Close()

	stats := manager.Stats()
	assert.Equal(t, 1, stats.ParsersCreated)
	assert.Equal(t, 1, stats.ParsesCalled)
}

func TestConcurrentParsing(t *testing.T) {
	manager := NewManagerWithPoolSize(4, nil)
	defer manager.Close()

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := GrammarTSX
			if i%2 == 1 {
				g = GrammarJavaScript
			}
			tree, err := manager.Parse([]byte(reactSnippet), g)
			if err != nil {
				errs <- err
				return
			}
			tree.Close()
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	stats := manager.Stats()
	assert.Equal(t, goroutines, stats.ParsesCalled)
	assert.LessOrEqual(t, stats.ParsersCreated, 8)
}
