//go:build !linux

package export

import (
	"context"
	"log/slog"
)

func writeImage(ctx context.Context, png []byte, logger *slog.Logger) error {
	return ErrClipboardUnsupported
}
