package catalog

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/iconpark/pkg/util"
)

// defaultFilterMemoSize bounds the number of memoized (search, category) results.
const defaultFilterMemoSize = 256

type filterKey struct {
	search   string
	category string
}

// QueryService provides read-only query methods over a loaded catalog.
type QueryService struct {
	Catalog *Catalog
	Index   *CatalogIndex

	// memo holds catalog positions of filter results; results are rebuilt
	// from positions so callers never share a backing array.
	memo *lru.Cache[filterKey, []int]
}

// NewQueryService creates a QueryService from a validated catalog and its index.
func NewQueryService(cat *Catalog, idx *CatalogIndex) *QueryService {
	memo, err := lru.New[filterKey, []int](defaultFilterMemoSize)
	if err != nil {
		// Only fails for a non-positive size.
		panic(err)
	}
	return &QueryService{Catalog: cat, Index: idx, memo: memo}
}

// LoadAndQuery loads a catalog from file and returns a ready-to-use QueryService.
func LoadAndQuery(fc util.FileCache, path string) (*QueryService, error) {
	cat, idx, err := LoadFromFile(fc, path)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// LoadAndQueryBytes loads a catalog from raw JSON bytes and returns a ready-to-use QueryService.
func LoadAndQueryBytes(data []byte) (*QueryService, error) {
	cat, idx, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewQueryService(cat, idx), nil
}

// Len returns the number of icons in the catalog.
func (q *QueryService) Len() int {
	return len(q.Catalog.Icons)
}

// ListCategories returns all categories with icon counts, sorted by name.
func (q *QueryService) ListCategories() []CategoryCount {
	out := make([]CategoryCount, len(q.Index.Categories))
	copy(out, q.Index.Categories)
	return out
}

// GetIcon looks up an icon by kebab-case name.
func (q *QueryService) GetIcon(name string) (*Icon, bool) {
	icon, ok := q.Index.IconByName[name]
	return icon, ok
}

// Filter returns the icons matching search and category, in catalog order.
//
// An icon matches when its title, name, or any tag contains search
// (case-insensitive) and category is "all" (or empty) or equals the icon's
// category. The result is a pure function of (catalog, search, category).
func (q *QueryService) Filter(search, category string) []Icon {
	if category == "" {
		category = AllCategories
	}
	key := filterKey{search: strings.ToLower(search), category: category}

	positions, ok := q.memo.Get(key)
	if !ok {
		positions = q.filterPositions(key)
		q.memo.Add(key, positions)
	}

	result := make([]Icon, 0, len(positions))
	for _, pos := range positions {
		result = append(result, q.Catalog.Icons[pos])
	}
	return result
}

func (q *QueryService) filterPositions(key filterKey) []int {
	positions := make([]int, 0)
	for i := range q.Catalog.Icons {
		icon := &q.Catalog.Icons[i]
		if key.category != AllCategories && icon.Category != key.category {
			continue
		}
		if matchesSearch(icon, key.search) {
			positions = append(positions, i)
		}
	}
	return positions
}

// matchesSearch reports whether needle (already lowercased) occurs in the
// icon's title, name, or tags.
func matchesSearch(icon *Icon, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(icon.Title), needle) ||
		strings.Contains(strings.ToLower(icon.Name), needle) {
		return true
	}
	for _, tag := range icon.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Names returns every icon name in catalog order.
func (q *QueryService) Names() []string {
	names := make([]string, len(q.Catalog.Icons))
	for i, icon := range q.Catalog.Icons {
		names[i] = icon.Name
	}
	return names
}
