package browser

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/export"
	"github.com/gnana997/iconpark/pkg/extract"
	"github.com/gnana997/iconpark/pkg/raster"
	"github.com/gnana997/iconpark/pkg/snippet"
)

// Level classifies a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is the user-facing outcome of an action.
type Notice struct {
	Level   Level
	Message string
}

func success(format string, args ...any) Notice {
	return Notice{Level: LevelSuccess, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) Notice {
	return Notice{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

var noticeSelectionMissing = failure("Please select an icon first")

// snapshot captures the selection for an action. The returned context is
// cancelled when ctx ends or when the selection changes.
func (s *Session) snapshot(ctx context.Context) (extract.Snapshot, context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == nil {
		return extract.Snapshot{}, nil, nil, ErrSelectionMissing
	}
	icon := *s.selected
	snap := extract.Snapshot{Icon: &icon, Style: s.style, Generation: s.generation}

	actx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.selCtx, cancel)
	return snap, actx, func() {
		stop()
		cancel()
	}, nil
}

// guard converts a panic inside an action into an error.
func (s *Session) guard(action string, notice *Notice, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("action panicked", "action", action, "panic", r, "stack", string(debug.Stack()))
		*err = fmt.Errorf("%s: internal error: %v", action, r)
		*notice = failure("%s failed: internal error", action)
	}
}

// markup returns normalized markup for the current selection.
func (s *Session) markup(ctx context.Context, snap extract.Snapshot, size int) ([]byte, error) {
	return s.extractor.ExtractNormalized(ctx, snap, size)
}

func (s *Session) bitmap(ctx context.Context, snap extract.Snapshot, size int) ([]byte, error) {
	if size <= 0 {
		size = snap.Style.Size
	}
	svg, err := s.markup(ctx, snap, size)
	if err != nil {
		return nil, err
	}
	return s.rasterizer.Rasterize(ctx, svg, size)
}

// Markup returns the normalized SVG of the selected icon. It fails when the
// selection or style changes before the markup is ready.
func (s *Session) Markup(ctx context.Context) (svg []byte, err error) {
	var notice Notice
	defer s.guard("Markup", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	svg, err = s.markup(actx, snap, 0)
	if err != nil {
		return nil, err
	}
	if err := s.deliverable(snap); err != nil {
		return nil, err
	}
	return svg, nil
}

// Bitmap returns a size×size PNG of the selected icon. size 0 uses the
// style size. Like Markup it fails when the state moved on meanwhile.
func (s *Session) Bitmap(ctx context.Context, size int) (png []byte, err error) {
	var notice Notice
	defer s.guard("Bitmap", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	png, err = s.bitmap(actx, snap, size)
	if err != nil {
		return nil, err
	}
	if err := s.deliverable(snap); err != nil {
		return nil, err
	}
	return png, nil
}

// CopySVG places the selected icon's markup on the clipboard.
func (s *Session) CopySVG(ctx context.Context) (notice Notice, err error) {
	defer s.guard("Copy SVG", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return noticeSelectionMissing, err
	}
	defer done()

	svg, err := s.markup(actx, snap, 0)
	if err != nil {
		return s.failed("Copy", err), err
	}
	if err := s.deliverable(snap); err != nil {
		return s.failed("Copy", err), err
	}
	if err := s.dispatcher.CopyText(actx, string(svg)); err != nil {
		return s.failed("Copy", err), err
	}
	return success("SVG copied to clipboard"), nil
}

// CopyPNG places a PNG of the selected icon on the clipboard.
func (s *Session) CopyPNG(ctx context.Context, size int) (notice Notice, err error) {
	defer s.guard("Copy PNG", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return noticeSelectionMissing, err
	}
	defer done()

	png, err := s.bitmap(actx, snap, size)
	if err != nil {
		return s.failed("Copy", err), err
	}
	if err := s.deliverable(snap); err != nil {
		return s.failed("Copy", err), err
	}
	if err := s.dispatcher.CopyImage(actx, png); err != nil {
		return s.failed("Copy", err), err
	}
	return success("PNG copied to clipboard"), nil
}

// CopySnippet places framework code for the selected icon on the clipboard.
func (s *Session) CopySnippet(ctx context.Context, f snippet.Framework) (notice Notice, err error) {
	defer s.guard("Copy code", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return noticeSelectionMissing, err
	}
	defer done()

	code, err := snippet.Generate(f, *snap.Icon, snap.Style)
	if err != nil {
		return s.failed("Copy", err), err
	}
	if err := s.dispatcher.CopyText(actx, code); err != nil {
		return s.failed("Copy", err), err
	}
	return success("%s code copied to clipboard", frameworkLabel(f)), nil
}

// DownloadSVG saves the selected icon as "<name>.svg" and returns the path.
func (s *Session) DownloadSVG(ctx context.Context) (path string, notice Notice, err error) {
	defer s.guard("Download SVG", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return "", noticeSelectionMissing, err
	}
	defer done()

	svg, err := s.markup(actx, snap, 0)
	if err != nil {
		return "", s.failed("Download", err), err
	}
	return s.save(actx, snap, export.Artifact{Kind: export.KindMarkup, Data: svg})
}

// DownloadPNG saves a PNG of the selected icon as "<name>.png".
func (s *Session) DownloadPNG(ctx context.Context, size int) (path string, notice Notice, err error) {
	defer s.guard("Download PNG", &notice, &err)

	snap, actx, done, err := s.snapshot(ctx)
	if err != nil {
		return "", noticeSelectionMissing, err
	}
	defer done()

	png, err := s.bitmap(actx, snap, size)
	if err != nil {
		return "", s.failed("Download", err), err
	}
	return s.save(actx, snap, export.Artifact{Kind: export.KindBitmap, Data: png})
}

func (s *Session) save(ctx context.Context, snap extract.Snapshot, a export.Artifact) (string, Notice, error) {
	if err := s.deliverable(snap); err != nil {
		return "", s.failed("Download", err), err
	}
	path, err := s.dispatcher.Save(ctx, *snap.Icon, a)
	if err != nil {
		return "", s.failed("Download", err), err
	}
	return path, success("Saved %s", export.FileName(snap.Icon.Name, a.Kind)), nil
}

// deliverable rejects snapshots whose selection or style changed meanwhile.
func (s *Session) deliverable(snap extract.Snapshot) error {
	if !s.isCurrent(snap.Generation) {
		return fmt.Errorf("%w: %s: selection changed", extract.ErrMarkupUnavailable, snap.Icon.Name)
	}
	return nil
}

// failed maps an action error to a notice.
func (s *Session) failed(action string, err error) Notice {
	s.logger.Warn("action failed", "action", action, "error", err)
	switch {
	case errors.Is(err, context.Canceled):
		return Notice{Level: LevelInfo, Message: action + " cancelled"}
	case errors.Is(err, export.ErrClipboardUnsupported):
		return failure("%s failed: clipboard is not supported here, use download instead", action)
	case errors.Is(err, extract.ErrMarkupUnavailable):
		return failure("%s failed: could not get SVG, please try again", action)
	case errors.Is(err, raster.ErrTimeout):
		return failure("%s failed: image conversion timed out", action)
	case errors.Is(err, raster.ErrDecode):
		return failure("%s failed: image conversion failed", action)
	default:
		return failure("%s failed: %v", action, err)
	}
}

func frameworkLabel(f snippet.Framework) string {
	switch f {
	case snippet.React:
		return "React"
	case snippet.Vue:
		return "Vue"
	default:
		return string(f)
	}
}

// BatchExport saves every named icon with the current style. Names that are
// not in the catalog produce a failed result.
func (s *Session) BatchExport(ctx context.Context, names []string, kind export.Kind, size int, workers int) ([]export.Result, error) {
	s.mu.Lock()
	qs, cfg := s.queries, s.style
	s.mu.Unlock()

	jobs := make([]export.Job, len(names))
	for i, name := range names {
		icon, ok := qs.GetIcon(name)
		if !ok {
			icon = &catalog.Icon{Name: name}
		}
		jobs[i] = export.Job{Icon: *icon, Kind: kind, Size: size}
	}

	ex := extract.New(s.extractor.Source, s.logger)
	produce := func(ctx context.Context, job export.Job) (export.Artifact, error) {
		if _, ok := qs.GetIcon(job.Icon.Name); !ok {
			return export.Artifact{}, fmt.Errorf("%w: %s", ErrUnknownIcon, job.Icon.Name)
		}
		size := job.Size
		if size <= 0 {
			size = cfg.Size
		}
		svg, err := ex.ExtractNormalized(ctx, extract.Snapshot{Icon: &job.Icon, Style: cfg}, size)
		if err != nil {
			return export.Artifact{}, err
		}
		if job.Kind != export.KindBitmap {
			return export.Artifact{Kind: export.KindMarkup, Data: svg}, nil
		}
		png, err := s.rasterizer.Rasterize(ctx, svg, size)
		if err != nil {
			return export.Artifact{}, err
		}
		return export.Artifact{Kind: export.KindBitmap, Data: png}, nil
	}
	return s.dispatcher.BatchExport(ctx, jobs, produce, workers)
}
