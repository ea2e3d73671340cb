// Package extract obtains the rendered markup of the selected icon and turns
// it into a standalone, validated SVG document.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
	"github.com/gnana997/iconpark/pkg/util"
)

// SettleDelay is the wait before the single retry of an unsettled source.
const SettleDelay = 75 * time.Millisecond

var (
	// ErrSelectionMissing means the snapshot carries no icon.
	ErrSelectionMissing = errors.New("no icon selected")

	// ErrMarkupUnavailable means no valid markup could be produced.
	ErrMarkupUnavailable = errors.New("svg markup unavailable")

	// ErrNotSettled is returned by a Source whose markup is not ready yet.
	ErrNotSettled = errors.New("markup not settled")
)

// Snapshot is the selection and style captured when an export starts.
type Snapshot struct {
	Icon       *catalog.Icon
	Style      style.Config
	Generation uint64
}

// Source produces raw markup for an icon rendered with cfg.
type Source interface {
	Markup(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error)

func (f SourceFunc) Markup(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error) {
	return f(ctx, icon, cfg)
}

// RegistrySource renders icons through reg. It always settles immediately.
func RegistrySource(reg *registry.Registry) Source {
	return SourceFunc(func(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error) {
		rd, err := reg.Resolve(icon.Name)
		if err != nil {
			return nil, err
		}
		return rd.Render(cfg)
	})
}

// Extractor turns snapshots into normalized markup.
type Extractor struct {
	Source      Source
	SettleDelay time.Duration

	// IsCurrent, when set, reports whether a snapshot generation is still
	// the live one. Stale snapshots are rejected before and after rendering.
	IsCurrent func(generation uint64) bool

	logger *slog.Logger
}

// New creates an Extractor reading from src.
func New(src Source, logger *slog.Logger) *Extractor {
	return &Extractor{
		Source:      src,
		SettleDelay: SettleDelay,
		logger:      util.OrDefault(logger),
	}
}

// ExtractNormalized returns standalone markup for snap. The root width and
// height are sizeOverride when positive, otherwise snap.Style.Size.
func (e *Extractor) ExtractNormalized(ctx context.Context, snap Snapshot, sizeOverride int) ([]byte, error) {
	if snap.Icon == nil {
		return nil, ErrSelectionMissing
	}
	if err := e.checkCurrent(snap); err != nil {
		return nil, err
	}

	raw, err := e.fetch(ctx, snap)
	if err != nil {
		return nil, err
	}

	size := snap.Style.Size
	if sizeOverride > 0 {
		size = sizeOverride
	}
	out, err := markup.Normalize(raw, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMarkupUnavailable, snap.Icon.Name, err)
	}
	if err := markup.Validate(out); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMarkupUnavailable, snap.Icon.Name, err)
	}
	if err := e.checkCurrent(snap); err != nil {
		return nil, err
	}
	return out, nil
}

// fetch asks the source for markup, retrying once after SettleDelay when
// the source is not settled.
func (e *Extractor) fetch(ctx context.Context, snap Snapshot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := e.Source.Markup(ctx, *snap.Icon, snap.Style)
	if errors.Is(err, ErrNotSettled) {
		e.logger.Debug("markup not settled, retrying", "icon", snap.Icon.Name, "delay", e.SettleDelay)
		timer := time.NewTimer(e.SettleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		raw, err = e.Source.Markup(ctx, *snap.Icon, snap.Style)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrMarkupUnavailable, snap.Icon.Name, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s: empty markup", ErrMarkupUnavailable, snap.Icon.Name)
	}
	return raw, nil
}

func (e *Extractor) checkCurrent(snap Snapshot) error {
	if e.IsCurrent != nil && !e.IsCurrent(snap.Generation) {
		return fmt.Errorf("%w: %s: selection changed", ErrMarkupUnavailable, snap.Icon.Name)
	}
	return nil
}
