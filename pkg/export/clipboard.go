package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atotto/clipboard"

	"github.com/gnana997/iconpark/pkg/util"
)

// Clipboard writes text and PNG images to a clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
	WriteImage(ctx context.Context, png []byte) error
}

// SystemClipboard uses the desktop clipboard. Text goes through
// atotto/clipboard; images are piped to a platform tool.
type SystemClipboard struct {
	logger *slog.Logger
}

// NewSystemClipboard creates a SystemClipboard.
func NewSystemClipboard(logger *slog.Logger) *SystemClipboard {
	return &SystemClipboard{logger: util.OrDefault(logger)}
}

func (c *SystemClipboard) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardWrite, err)
	}
	return nil
}

func (c *SystemClipboard) WriteImage(ctx context.Context, png []byte) error {
	return writeImage(ctx, png, c.logger)
}
