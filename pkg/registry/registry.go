// Package registry resolves kebab-case icon names to renderable icon sources.
//
// A Registry is built once from a set of SVG sources and is read-only
// afterwards. Lookups go through the PascalCase identifier of the icon
// (add-one -> AddOne), the same naming the icon component packages use.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/util"
)

// ErrNotFound is returned by Resolve for names without a source.
var ErrNotFound = errors.New("icon not found")

const defaultRenderMemoSize = 512

// Options controls source discovery.
type Options struct {
	// Include and Exclude are doublestar patterns matched against
	// slash-separated paths relative to the source root.
	Include []string
	Exclude []string

	// MemoSize bounds the number of cached renders. Zero uses the default.
	MemoSize int

	Logger *slog.Logger
}

// DefaultOptions matches every .svg file below the root.
func DefaultOptions() Options {
	return Options{
		Include:  []string{"**/*.svg"},
		MemoSize: defaultRenderMemoSize,
	}
}

// Registry maps icon identifiers to their sources.
type Registry struct {
	icons       map[string]*Renderer
	identifiers []string
	names       []string
	memo        *lru.Cache[renderKey, []byte]
}

// ToPascalCase converts a kebab-case icon name to its component identifier
// by upper-casing the first character of each hyphen-separated segment.
// The rest of a segment is kept, so "3d-glasses" becomes "3dGlasses".
func ToPascalCase(name string) string {
	upper := cases.Upper(language.Und)
	var b strings.Builder
	b.Grow(len(name))
	for _, seg := range strings.Split(name, "-") {
		if seg == "" {
			continue
		}
		_, n := utf8.DecodeRuneInString(seg)
		b.WriteString(upper.String(seg[:n]))
		b.WriteString(seg[n:])
	}
	return b.String()
}

// Load builds a registry from the SVG sources in fsys.
func Load(fsys fs.FS, opts Options) (*Registry, error) {
	paths, err := Discover(fsys, opts)
	if err != nil {
		return nil, err
	}
	return build(paths, func(p string) ([]byte, error) {
		return fs.ReadFile(fsys, p)
	}, opts)
}

// LoadDir builds a registry from the SVG sources below dir. Files are read
// through fc; a nil fc reads them directly.
func LoadDir(fc util.FileCache, dir string, opts Options) (*Registry, error) {
	paths, err := Discover(os.DirFS(dir), opts)
	if err != nil {
		return nil, err
	}
	read := func(p string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	}
	if fc != nil {
		read = func(p string) ([]byte, error) {
			return fc.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		}
	}
	return build(paths, read, opts)
}

// Discover returns the sorted paths in fsys selected by opts.
func Discover(fsys fs.FS, opts Options) ([]string, error) {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultOptions().Include
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	var paths []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		for _, pattern := range opts.Exclude {
			if matched, _ := doublestar.Match(pattern, p); matched {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		for _, pattern := range include {
			if matched, _ := doublestar.Match(pattern, p); matched {
				paths = append(paths, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover icon sources: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func build(paths []string, read func(string) ([]byte, error), opts Options) (*Registry, error) {
	logger := util.OrDefault(opts.Logger)
	size := opts.MemoSize
	if size <= 0 {
		size = defaultRenderMemoSize
	}
	memo, err := lru.New[renderKey, []byte](size)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		icons: make(map[string]*Renderer, len(paths)),
		memo:  memo,
	}
	origin := make(map[string]string, len(paths))

	var errs []error
	for _, p := range paths {
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		id := ToPascalCase(name)
		if prev, dup := origin[id]; dup {
			errs = append(errs, fmt.Errorf("%s: identifier %s already provided by %s", p, id, prev))
			continue
		}
		src, err := read(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		if _, err := markup.Parse(src); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		origin[id] = p
		r.icons[id] = &Renderer{Name: name, Identifier: id, source: src, memo: memo}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build icon registry: %w", errors.Join(errs...))
	}

	for id, rd := range r.icons {
		r.identifiers = append(r.identifiers, id)
		r.names = append(r.names, rd.Name)
	}
	sort.Strings(r.identifiers)
	sort.Strings(r.names)

	logger.Debug("icon registry built", "icons", len(r.icons))
	return r, nil
}

// Len returns the number of icons.
func (r *Registry) Len() int {
	return len(r.icons)
}

// Identifiers returns every PascalCase identifier, sorted.
func (r *Registry) Identifiers() []string {
	return append([]string(nil), r.identifiers...)
}

// Names returns every kebab-case name, sorted.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Resolve returns the renderer for a kebab-case name (or its identifier).
func (r *Registry) Resolve(name string) (*Renderer, error) {
	if rd, ok := r.icons[ToPascalCase(name)]; ok {
		return rd, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Suggest returns up to n known names that fuzzily match name, best first.
func (r *Registry) Suggest(name string, n int) []string {
	if n <= 0 || name == "" {
		return nil
	}
	matches := fuzzy.Find(strings.ToLower(name), r.names)
	out := make([]string, 0, n)
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// Check returns the names in cat that have no source in the registry.
func (r *Registry) Check(cat *catalog.Catalog) []string {
	var missing []string
	for _, icon := range cat.Icons {
		if _, ok := r.icons[ToPascalCase(icon.Name)]; !ok {
			missing = append(missing, icon.Name)
		}
	}
	return missing
}
