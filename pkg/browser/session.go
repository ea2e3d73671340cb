// Package browser holds the interactive state of an icon browsing session:
// the filter, the selected icon, and the style, plus the export actions that
// operate on the current selection.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/export"
	"github.com/gnana997/iconpark/pkg/extract"
	"github.com/gnana997/iconpark/pkg/raster"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
	"github.com/gnana997/iconpark/pkg/util"
)

var (
	// ErrSelectionMissing is returned by actions that need a selected icon.
	ErrSelectionMissing = extract.ErrSelectionMissing

	// ErrUnknownIcon is returned by Select for names not in the catalog.
	ErrUnknownIcon = errors.New("unknown icon")
)

// Options configures a Session.
type Options struct {
	Catalog    *catalog.QueryService
	Registry   *registry.Registry
	Dispatcher *export.Dispatcher
	Rasterizer *raster.Rasterizer
	Logger     *slog.Logger
}

// Session is safe for concurrent use. Actions snapshot the state under the
// lock, do their work outside it, and recheck the generation before
// delivering anything.
type Session struct {
	mu sync.Mutex

	queries  *catalog.QueryService
	registry *registry.Registry

	search   string
	category string
	style    style.Config
	selected *catalog.Icon

	// generation changes whenever the selection, the style, or the icon
	// sources change.
	generation uint64
	selCtx     context.Context
	selCancel  context.CancelFunc

	extractor  *extract.Extractor
	rasterizer *raster.Rasterizer
	dispatcher *export.Dispatcher
	logger     *slog.Logger
}

// New creates a Session with the default style and no selection.
func New(opts Options) (*Session, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	logger := util.OrDefault(opts.Logger)

	s := &Session{
		queries:    opts.Catalog,
		registry:   opts.Registry,
		category:   catalog.AllCategories,
		style:      style.Default(),
		rasterizer: opts.Rasterizer,
		dispatcher: opts.Dispatcher,
		logger:     logger,
	}
	if s.rasterizer == nil {
		s.rasterizer = raster.New(logger)
	}
	if s.dispatcher == nil {
		s.dispatcher = export.NewDispatcher(nil, nil, logger)
	}

	s.extractor = extract.New(extract.SourceFunc(s.renderMarkup), logger)
	s.extractor.IsCurrent = s.isCurrent

	if missing := opts.Registry.Check(opts.Catalog.Catalog); len(missing) > 0 {
		logger.Warn("catalog icons without a source", "count", len(missing), "names", missing)
	}
	return s, nil
}

func (s *Session) renderMarkup(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error) {
	s.mu.Lock()
	reg := s.registry
	s.mu.Unlock()

	rd, err := reg.Resolve(icon.Name)
	if err != nil {
		return nil, err
	}
	return rd.Render(cfg)
}

func (s *Session) isCurrent(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == generation
}

// SetSearch sets the free-text filter.
func (s *Session) SetSearch(search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = search
}

// SetCategory sets the category filter; "" selects every category.
func (s *Session) SetCategory(category string) {
	if category == "" {
		category = catalog.AllCategories
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
}

// Filter returns the current search and category.
func (s *Session) Filter() (search, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search, s.category
}

// Visible returns the icons that pass the current filter, in catalog order.
func (s *Session) Visible() []catalog.Icon {
	s.mu.Lock()
	qs, search, category := s.queries, s.search, s.category
	s.mu.Unlock()
	return qs.Filter(search, category)
}

// Categories returns the catalog categories with their icon counts.
func (s *Session) Categories() []catalog.CategoryCount {
	s.mu.Lock()
	qs := s.queries
	s.mu.Unlock()
	return qs.ListCategories()
}

// Select makes the named icon the current selection and cancels work
// started for the previous one.
func (s *Session) Select(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	icon, ok := s.queries.GetIcon(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIcon, name)
	}
	selected := *icon
	s.replaceSelection(&selected)
	return nil
}

// ClearSelection drops the selection and cancels in-flight exports of it.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceSelection(nil)
}

// replaceSelection must be called with mu held.
func (s *Session) replaceSelection(icon *catalog.Icon) {
	if s.selCancel != nil {
		s.selCancel()
	}
	s.selected = icon
	s.selCtx, s.selCancel = nil, nil
	if icon != nil {
		s.selCtx, s.selCancel = context.WithCancel(context.Background())
	}
	s.generation++
}

// Selected returns a copy of the selected icon.
func (s *Session) Selected() (catalog.Icon, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return catalog.Icon{}, false
	}
	return *s.selected, true
}

// Style returns the current style.
func (s *Session) Style() style.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// UpdateStyle applies fn to a copy of the style, clamps the numeric fields,
// and keeps the result only when it validates.
func (s *Session) UpdateStyle(fn func(*style.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.style
	fn(&next)
	next = next.Clamped()
	if err := next.Validate(); err != nil {
		return err
	}
	if next != s.style {
		s.style = next
		s.generation++
	}
	return nil
}

// ResetStyle restores the default style.
func (s *Session) ResetStyle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.style.Reset()
	s.generation++
}

// Generation returns the current state generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Swap replaces the catalog and icon sources, for example after the files on
// disk changed. A selection that no longer exists is cleared.
func (s *Session) Swap(qs *catalog.QueryService, reg *registry.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qs != nil {
		s.queries = qs
	}
	if reg != nil {
		s.registry = reg
	}
	if s.selected != nil {
		if icon, ok := s.queries.GetIcon(s.selected.Name); ok {
			selected := *icon
			s.selected = &selected
		} else {
			s.replaceSelection(nil)
		}
	}
	s.generation++
	s.logger.Info("icon sources reloaded", "icons", s.queries.Len(), "sources", s.registry.Len())
}
