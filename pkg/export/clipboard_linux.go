//go:build linux

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// imageToolWaitDelay bounds how long Wait lingers after the tool is killed.
const imageToolWaitDelay = 500 * time.Millisecond

// writeImage tries Wayland (wl-copy) first, then X11 (xclip).
//
// Both tools fork a background process that keeps owning the selection.
// That process inherits the tool's stdio, so stdin and stderr are plain
// files rather than pipes: Wait must not depend on the background process
// closing them.
func writeImage(ctx context.Context, png []byte, logger *slog.Logger) error {
	var cmd *exec.Cmd
	switch {
	case lookPath("wl-copy"):
		cmd = exec.CommandContext(ctx, "wl-copy", "--type", "image/png")
	case lookPath("xclip"):
		cmd = exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-t", "image/png")
	default:
		return fmt.Errorf("%w: no image clipboard tool (install wl-clipboard or xclip)", ErrClipboardUnsupported)
	}

	stdin, err := tempFile(png)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardWrite, err)
	}
	defer removeTemp(stdin)

	stderr, err := tempFile(nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClipboardWrite, err)
	}
	defer removeTemp(stderr)

	cmd.Stdin = stdin
	cmd.Stderr = stderr
	cmd.WaitDelay = imageToolWaitDelay

	logger.Debug("writing image to clipboard", "tool", cmd.Path)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w: %s", ErrClipboardWrite, cmd.Path, err, readTail(stderr))
	}
	return nil
}

// tempFile returns an unlinked-on-close temp file holding data, rewound to
// the start.
func tempFile(data []byte) (*os.File, error) {
	f, err := os.CreateTemp("", "iconpark-clip-*")
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if _, err := f.Write(data); err != nil {
			removeTemp(f)
			return nil, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			removeTemp(f)
			return nil, err
		}
	}
	return f, nil
}

func removeTemp(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}

func readTail(f *os.File) []byte {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil
	}
	out, _ := io.ReadAll(io.LimitReader(f, 4096))
	return bytes.TrimSpace(out)
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
