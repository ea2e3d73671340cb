package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gnana997/iconpark/catalogs"
	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/util"
)

// Loader builds the catalog and icon registry from disk, or from the
// embedded defaults when a path is empty.
type Loader struct {
	CatalogPath string
	IconsDir    string
	Registry    registry.Options

	// FileCache is optional. Changed paths are evicted before a reload.
	FileCache util.FileCache
}

// Load reads the catalog and the icon sources.
func (l *Loader) Load() (*catalog.QueryService, *registry.Registry, error) {
	var (
		qs  *catalog.QueryService
		err error
	)
	if l.CatalogPath == "" {
		qs, err = catalog.LoadAndQueryBytes(catalogs.IconsJSON)
	} else {
		qs, err = catalog.LoadAndQuery(l.FileCache, filepath.Clean(l.CatalogPath))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	var reg *registry.Registry
	if l.IconsDir == "" {
		reg, err = registry.Load(catalogs.Sources(), l.Registry)
	} else {
		reg, err = registry.LoadDir(l.FileCache, filepath.Clean(l.IconsDir), l.Registry)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load icon sources: %w", err)
	}
	return qs, reg, nil
}

// Paths returns the on-disk locations to watch.
func (l *Loader) Paths() []string {
	var paths []string
	if l.CatalogPath != "" {
		paths = append(paths, filepath.Clean(l.CatalogPath))
	}
	if l.IconsDir != "" {
		paths = append(paths, filepath.Clean(l.IconsDir))
	}
	return paths
}

// Evict drops changed files from the file cache.
func (l *Loader) Evict(paths []string) {
	if l.FileCache == nil {
		return
	}
	for _, p := range paths {
		l.FileCache.Evict(filepath.Clean(p))
	}
}

// Target receives freshly loaded sources.
type Target interface {
	Swap(qs *catalog.QueryService, reg *registry.Registry)
}

// Reloader returns a ReloadFunc that reloads through l and hands the result
// to every target. A failed load leaves the targets untouched.
func Reloader(l *Loader, logger *slog.Logger, targets ...Target) ReloadFunc {
	logger = util.OrDefault(logger)
	return func(changed []string) error {
		l.Evict(changed)
		qs, reg, err := l.Load()
		if err != nil {
			return err
		}
		if missing := reg.Check(qs.Catalog); len(missing) > 0 {
			logger.Warn("catalog icons without a source", "count", len(missing), "names", missing)
		}
		for _, t := range targets {
			t.Swap(qs, reg)
		}
		return nil
	}
}
