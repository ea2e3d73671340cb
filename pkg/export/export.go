// Package export delivers icon artifacts to the system clipboard or to files.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/util"
)

var (
	// ErrClipboardUnsupported means no clipboard mechanism is available.
	ErrClipboardUnsupported = errors.New("clipboard not supported")

	// ErrClipboardWrite means the clipboard rejected the write.
	ErrClipboardWrite = errors.New("clipboard write failed")

	// ErrFileSave means the artifact could not be written to disk.
	ErrFileSave = errors.New("file save failed")
)

// Kind identifies the payload of an Artifact.
type Kind int

const (
	KindMarkup Kind = iota
	KindBitmap
	KindSnippet
)

func (k Kind) String() string {
	switch k {
	case KindMarkup:
		return "svg"
	case KindBitmap:
		return "png"
	case KindSnippet:
		return "snippet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ext returns the file extension used when saving an artifact of kind k.
func (k Kind) Ext() string {
	switch k {
	case KindMarkup:
		return "svg"
	case KindBitmap:
		return "png"
	default:
		return "txt"
	}
}

// ParseKind converts "svg" or "png" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "svg":
		return KindMarkup, nil
	case "png":
		return KindBitmap, nil
	case "snippet":
		return KindSnippet, nil
	}
	return 0, fmt.Errorf("unknown export format %q", s)
}

// Artifact is a produced export payload.
type Artifact struct {
	Kind Kind
	Data []byte
}

// Dispatcher hands artifacts to the clipboard or the file system.
type Dispatcher struct {
	Clipboard Clipboard
	Saver     *Saver

	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil clipboard uses SystemClipboard.
func NewDispatcher(cb Clipboard, saver *Saver, logger *slog.Logger) *Dispatcher {
	logger = util.OrDefault(logger)
	if cb == nil {
		cb = NewSystemClipboard(logger)
	}
	return &Dispatcher{Clipboard: cb, Saver: saver, logger: logger}
}

// CopyText places text on the clipboard.
func (d *Dispatcher) CopyText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.Clipboard.WriteText(ctx, text); err != nil {
		d.logger.Warn("clipboard text write failed", "error", err)
		return err
	}
	d.logger.Debug("copied text to clipboard", "bytes", len(text))
	return nil
}

// CopyImage places a PNG image on the clipboard.
func (d *Dispatcher) CopyImage(ctx context.Context, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.Clipboard.WriteImage(ctx, png); err != nil {
		d.logger.Warn("clipboard image write failed", "error", err)
		return err
	}
	d.logger.Debug("copied image to clipboard", "bytes", len(png))
	return nil
}

// Save writes a to "<icon name>.<ext>" in the saver's directory and returns
// the written path.
func (d *Dispatcher) Save(ctx context.Context, icon catalog.Icon, a Artifact) (string, error) {
	if d.Saver == nil {
		return "", fmt.Errorf("%w: no output directory configured", ErrFileSave)
	}
	return d.Saver.Save(ctx, icon.Name, a)
}

// Saver writes artifacts into Dir.
type Saver struct {
	Dir string

	logger *slog.Logger
}

// NewSaver creates a Saver writing into dir.
func NewSaver(dir string, logger *slog.Logger) *Saver {
	return &Saver{Dir: dir, logger: util.OrDefault(logger)}
}

// FileName returns the download name of an artifact for icon name.
func FileName(name string, k Kind) string {
	return name + "." + k.Ext()
}

// Save writes a under FileName(name, a.Kind). Data goes to a temporary file
// in the same directory that is renamed into place; the temporary file is
// removed on every path. Markup is written with an XML declaration.
func (s *Saver) Save(ctx context.Context, name string, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: invalid file name %q", ErrFileSave, name)
	}
	if len(a.Data) == 0 {
		return "", fmt.Errorf("%w: empty %s artifact", ErrFileSave, a.Kind)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}

	data := a.Data
	if a.Kind == KindMarkup {
		data = markup.WithXMLDeclaration(data)
	}

	target := filepath.Join(s.Dir, FileName(name, a.Kind))
	tmp, err := os.CreateTemp(s.Dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileSave, err)
	}

	s.logger.Info("saved artifact", "path", target, "kind", a.Kind.String(), "bytes", len(data))
	return target, nil
}
