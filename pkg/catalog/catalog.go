package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/gnana997/iconpark/pkg/util"
)

// Catalog is the read-only icon collection loaded at startup.
type Catalog struct {
	Icons []Icon
}

// CatalogIndex provides O(1) lookups into the catalog.
// Built during LoadFromBytes after validation passes.
type CatalogIndex struct {
	// IconByName maps kebab-case name -> *Icon.
	IconByName map[string]*Icon

	// IconsByCategory maps category name -> icons in catalog order.
	IconsByCategory map[string][]*Icon

	// Categories lists distinct category names, sorted.
	Categories []CategoryCount
}

var kebabName = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks the catalog for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Catalog) Validate() []error {
	var errs []error

	names := make(map[string]bool, len(c.Icons))
	ids := make(map[int]string, len(c.Icons))

	for i, icon := range c.Icons {
		if icon.Name == "" {
			errs = append(errs, fmt.Errorf("icons[%d]: name is required", i))
			continue
		}
		if !kebabName.MatchString(icon.Name) {
			errs = append(errs, fmt.Errorf("icon %q: name must be kebab-case", icon.Name))
		}
		if names[icon.Name] {
			errs = append(errs, fmt.Errorf("icon %q: duplicate icon name", icon.Name))
			continue
		}
		names[icon.Name] = true

		if other, ok := ids[icon.ID]; ok {
			errs = append(errs, fmt.Errorf("icon %q: id %d already used by %q", icon.Name, icon.ID, other))
		} else {
			ids[icon.ID] = icon.Name
		}

		if icon.Category == "" {
			errs = append(errs, fmt.Errorf("icon %q: category is required", icon.Name))
		}
		// "all" is the filter sentinel.
		if icon.Category == AllCategories {
			errs = append(errs, fmt.Errorf("icon %q: category %q is reserved", icon.Name, AllCategories))
		}
	}

	return errs
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (c *Catalog) BuildIndex() *CatalogIndex {
	idx := &CatalogIndex{
		IconByName:      make(map[string]*Icon, len(c.Icons)),
		IconsByCategory: make(map[string][]*Icon),
	}

	localized := make(map[string]string)
	for i := range c.Icons {
		icon := &c.Icons[i]
		idx.IconByName[icon.Name] = icon
		idx.IconsByCategory[icon.Category] = append(idx.IconsByCategory[icon.Category], icon)
		if _, ok := localized[icon.Category]; !ok {
			localized[icon.Category] = icon.CategoryLocalized
		}
	}

	idx.Categories = make([]CategoryCount, 0, len(idx.IconsByCategory))
	for name, icons := range idx.IconsByCategory {
		idx.Categories = append(idx.Categories, CategoryCount{
			Name:      name,
			Localized: localized[name],
			Count:     len(icons),
		})
	}
	sort.Slice(idx.Categories, func(i, j int) bool {
		return idx.Categories[i].Name < idx.Categories[j].Name
	})

	return idx
}

// LoadFromFile loads a catalog from a JSON file through fc, validates it, and builds the index.
// A nil fc reads the file without caching.
func LoadFromFile(fc util.FileCache, path string) (*Catalog, *CatalogIndex, error) {
	if fc == nil {
		fc = util.NewFileCache(&util.FileCacheConfig{MaxFiles: 1})
		defer fc.Close()
	}
	data, err := fc.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a catalog from raw JSON bytes, validates it, and builds the index.
// The JSON document is an array of icon records.
func LoadFromBytes(data []byte) (*Catalog, *CatalogIndex, error) {
	var icons []Icon
	if err := json.Unmarshal(data, &icons); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	catalog := &Catalog{Icons: icons}
	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("catalog validation failed: %w", errors.Join(errs...))
	}

	return catalog, catalog.BuildIndex(), nil
}
