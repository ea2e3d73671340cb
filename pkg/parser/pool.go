package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool holds up to maxSize parsers of one grammar.
//
// Design:
//   - Channel-based pooling for acquire/release
//   - Lazy parser creation up to maxSize
//   - One grammar per pool (JavaScript, TypeScript or TSX)
//   - Once maxSize parsers exist, acquire blocks until one is released
//
// Thread Safety:
//   - Channel operations need no extra locking
//   - Mutex protects parser creation and the created count
type parserPool struct {
	// pool is a buffered channel storing idle parsers
	pool chan *ts.Parser

	// langPtr is the tree-sitter language pointer for this pool
	langPtr unsafe.Pointer

	// grammar identifies the pool in logs
	grammar Grammar

	// maxSize is the maximum number of parsers in the pool
	maxSize int

	// mutex protects created and parser creation
	mutex sync.Mutex

	// created tracks how many parsers have been created
	created int

	logger *slog.Logger
}

// newParserPool creates an empty pool for one grammar.
//
// Parameters:
//   - g: The grammar, used for logging
//   - langPtr: The tree-sitter language pointer
//   - maxSize: Maximum number of parsers to create
//   - logger: Structured logger
func newParserPool(g Grammar, langPtr unsafe.Pointer, maxSize int, logger *slog.Logger) *parserPool {
	return &parserPool{
		pool:    make(chan *ts.Parser, maxSize),
		langPtr: langPtr,
		grammar: g,
		maxSize: maxSize,
		logger:  logger,
	}
}

// acquire returns a parser from the pool, creating one if needed.
//
// Thread Safety:
//   - Safe for concurrent use
//   - Blocks if all parsers are in use and maxSize is reached
func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.pool:
		return parser, nil
	default:
	}

	p.mutex.Lock()
	if p.created >= p.maxSize {
		p.mutex.Unlock()
		return <-p.pool, nil
	}
	defer p.mutex.Unlock()

	parser := ts.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create parser")
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.langPtr)); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	p.created++
	p.logger.Debug("created parser", "grammar", p.grammar.String(), "pool_size", p.created)
	return parser, nil
}

// release returns parser to the pool. A parser that does not fit is closed.
func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.pool <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.grammar.String())
	}
}

// close closes every idle parser.
//
// **IMPORTANT:** Parsers still checked out are not closed; call this only
// after all users have released theirs.
func (p *parserPool) close() {
	close(p.pool)
	for parser := range p.pool {
		parser.Close()
	}
}

func (p *parserPool) createdCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.created
}
