// Package parser provides pooled tree-sitter parsers for generated code
// snippets.
package parser

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/iconpark/pkg/util"
)

// Manager hands out tree-sitter parsers per grammar.
//
// Pools are created lazily on first use. The Manager owns the pools and must
// be closed via Close(); callers own returned trees and must close them.
//
// Example:
//
//	manager := NewManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.Parse([]byte("<AddOne size=\"36\" />"), GrammarTSX)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type Manager struct {
	pools    map[Grammar]*parserPool
	poolSize int
	mutex    sync.RWMutex
	logger   *slog.Logger

	parsesCalled int
}

// NewManager creates a Manager sized by util.GetOptimalPoolSize().
func NewManager(logger *slog.Logger) *Manager {
	return NewManagerWithPoolSize(0, logger)
}

// NewManagerWithPoolSize creates a Manager whose pools hold at most
// poolSize parsers each. Zero uses the default size.
func NewManagerWithPoolSize(poolSize int, logger *slog.Logger) *Manager {
	return &Manager{
		pools:    make(map[Grammar]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   util.OrDefault(logger),
	}
}

// Parse parses source with grammar g. Trees with syntax errors are still
// returned; check tree.RootNode().HasError().
func (m *Manager) Parse(source []byte, g Grammar) (*ts.Tree, error) {
	if g == GrammarUnknown {
		return nil, fmt.Errorf("cannot parse unknown grammar")
	}

	m.mutex.Lock()
	m.parsesCalled++
	m.mutex.Unlock()

	pool, err := m.getOrCreatePool(g)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", g, err)
	}

	p, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := p.Parse(source, nil)
	pool.release(p)

	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}
	if tree.RootNode().HasError() {
		m.logger.Debug("parse tree contains errors", "grammar", g.String())
	}
	return tree, nil
}

// Close releases every pooled parser. The Manager cannot be used afterwards.
func (m *Manager) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for g, pool := range m.pools {
		pool.close()
		m.logger.Debug("closed parser pool", "grammar", g.String())
	}
	m.pools = make(map[Grammar]*parserPool)
	return nil
}

func (m *Manager) getOrCreatePool(g Grammar) (*parserPool, error) {
	m.mutex.RLock()
	pool, ok := m.pools[g]
	m.mutex.RUnlock()
	if ok {
		return pool, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if pool, ok = m.pools[g]; ok {
		return pool, nil
	}

	langPtr, err := languagePointer(g)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(g, langPtr, m.poolSize, m.logger)
	m.pools[g] = pool
	m.logger.Debug("created parser pool", "grammar", g.String(), "max_size", m.poolSize)
	return pool, nil
}

// Stats returns parser usage counters.
func (m *Manager) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	created := 0
	for _, pool := range m.pools {
		created += pool.createdCount()
	}
	return Stats{ParsersCreated: created, ParsesCalled: m.parsesCalled}
}

// Stats contains parser usage counters.
type Stats struct {
	ParsersCreated int
	ParsesCalled   int
}
