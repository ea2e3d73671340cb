package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/iconpark/catalogs"
	"github.com/gnana997/iconpark/pkg/util"
)

// --- Helpers ---

func minimalValidCatalog() *Catalog {
	return &Catalog{
		Icons: []Icon{
			{ID: 1, Name: "add-one", Title: "Add One", Category: "Base", CategoryLocalized: "基础", Tags: []string{"plus"}},
			{ID: 2, Name: "home", Title: "Home", Category: "Build", Tags: []string{"house"}},
		},
	}
}

// --- Validate ---

func TestValidate_Valid(t *testing.T) {
	errs := minimalValidCatalog().Validate()
	assert.Empty(t, errs)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Catalog)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(c *Catalog) { c.Icons[0].Name = "" },
			wantErr: "icons[0]: name is required",
		},
		{
			name:    "not kebab-case",
			mutate:  func(c *Catalog) { c.Icons[0].Name = "AddOne" },
			wantErr: "must be kebab-case",
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Catalog) { c.Icons[1].Name = "add-one" },
			wantErr: "duplicate icon name",
		},
		{
			name:    "duplicate id",
			mutate:  func(c *Catalog) { c.Icons[1].ID = 1 },
			wantErr: "id 1 already used",
		},
		{
			name:    "missing category",
			mutate:  func(c *Catalog) { c.Icons[1].Category = "" },
			wantErr: "category is required",
		},
		{
			name:    "reserved category",
			mutate:  func(c *Catalog) { c.Icons[1].Category = "all" },
			wantErr: "is reserved",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := minimalValidCatalog()
			tc.mutate(c)
			errs := c.Validate()
			require.NotEmpty(t, errs)
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tc.wantErr) {
					found = true
				}
			}
			assert.True(t, found, "expected an error containing %q, got %v", tc.wantErr, errs)
		})
	}
}

// --- BuildIndex ---

func TestBuildIndex(t *testing.T) {
	c := minimalValidCatalog()
	c.Icons = append(c.Icons, Icon{ID: 3, Name: "reduce-one", Category: "Base"})
	idx := c.BuildIndex()

	require.Contains(t, idx.IconByName, "home")
	assert.Equal(t, "Home", idx.IconByName["home"].Title)

	base := idx.IconsByCategory["Base"]
	require.Len(t, base, 2)
	assert.Equal(t, "add-one", base[0].Name)
	assert.Equal(t, "reduce-one", base[1].Name)

	require.Len(t, idx.Categories, 2)
	assert.Equal(t, CategoryCount{Name: "Base", Localized: "基础", Count: 2}, idx.Categories[0])
	assert.Equal(t, "Build", idx.Categories[1].Name)
}

// --- Load ---

func TestLoadFromBytes(t *testing.T) {
	data, err := json.Marshal(minimalValidCatalog().Icons)
	require.NoError(t, err)

	cat, idx, err := LoadFromBytes(data)
	require.NoError(t, err)
	assert.Len(t, cat.Icons, 2)
	assert.Len(t, idx.IconByName, 2)
}

func TestLoadFromBytes_UpstreamFieldNames(t *testing.T) {
	data := []byte(`[{"id":7,"title":"Add One","name":"add-one","category":"Base","categoryCN":"基础","author":"IconPark","tag":["plus","new"],"rtl":true}]`)
	cat, _, err := LoadFromBytes(data)
	require.NoError(t, err)

	icon := cat.Icons[0]
	assert.Equal(t, 7, icon.ID)
	assert.Equal(t, "基础", icon.CategoryLocalized)
	assert.Equal(t, "IconPark", icon.Author)
	assert.Equal(t, []string{"plus", "new"}, icon.Tags)
	assert.True(t, icon.RTL)
}

func TestLoadFromBytes_InvalidJSON(t *testing.T) {
	_, _, err := LoadFromBytes([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog JSON")
}

func TestLoadFromBytes_ValidationFails(t *testing.T) {
	_, _, err := LoadFromBytes([]byte(`[{"id":1,"name":"","category":"Base"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog validation failed")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icons.json")
	data, err := json.Marshal(minimalValidCatalog().Icons)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	fc := util.NewFileCache(nil)
	defer fc.Close()

	cat, _, err := LoadFromFile(fc, path)
	require.NoError(t, err)
	assert.Len(t, cat.Icons, 2)

	// nil cache reads directly.
	cat, _, err = LoadFromFile(nil, path)
	require.NoError(t, err)
	assert.Len(t, cat.Icons, 2)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, _, err := LoadFromFile(nil, filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read catalog file")
}

func TestEmbeddedCatalogIsValid(t *testing.T) {
	qs, err := LoadAndQueryBytes(catalogs.IconsJSON)
	require.NoError(t, err)
	assert.Greater(t, qs.Len(), 0)
	for _, c := range qs.ListCategories() {
		assert.NotEqual(t, AllCategories, c.Name)
	}
}
