// Package raster converts SVG icon markup into square PNG images.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/util"
)

const (
	// DecodeTimeout bounds how long decoding one document may take.
	DecodeTimeout = 5 * time.Second

	MinSize = 1
	MaxSize = 4096
)

var (
	// ErrDecode means the markup could not be decoded as SVG.
	ErrDecode = errors.New("svg decode failed")

	// ErrTimeout means decoding did not finish within the timeout.
	ErrTimeout = errors.New("svg decode timed out")

	// ErrSize means the requested size is outside [MinSize, MaxSize].
	ErrSize = errors.New("invalid raster size")
)

var scratch = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getBuffer() *bytes.Buffer {
	buf := scratch.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	// Oversized buffers are dropped rather than pinned in the pool.
	if buf.Cap() > 4<<20 {
		return
	}
	scratch.Put(buf)
}

// Rasterizer renders markup to PNG. The zero value is not usable; use New.
type Rasterizer struct {
	Timeout time.Duration

	readIcon func(io.Reader) (*oksvg.SvgIcon, error)
	logger   *slog.Logger
}

// New creates a Rasterizer with DecodeTimeout.
func New(logger *slog.Logger) *Rasterizer {
	return &Rasterizer{
		Timeout: DecodeTimeout,
		readIcon: func(r io.Reader) (*oksvg.SvgIcon, error) {
			return oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
		},
		logger: util.OrDefault(logger),
	}
}

var defaultRasterizer = New(nil)

// Rasterize renders markup with the default Rasterizer.
func Rasterize(ctx context.Context, svg []byte, size int) ([]byte, error) {
	return defaultRasterizer.Rasterize(ctx, svg, size)
}

// Rasterize returns a size×size PNG of markup painted over a white
// background.
func (r *Rasterizer) Rasterize(ctx context.Context, svg []byte, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrSize, size, MinSize, MaxSize)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		return nil, fmt.Errorf("%w: no <svg element", ErrDecode)
	}

	icon, err := r.decode(ctx, markup.WithXMLDeclaration(svg))
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("%w: empty viewBox", ErrDecode)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(size), float64(size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := getBuffer()
	defer putBuffer(out)
	if err := png.Encode(out, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return bytes.Clone(out.Bytes()), nil
}

type decodeResult struct {
	icon *oksvg.SvgIcon
	err  error
}

// decode parses doc on its own goroutine so that a slow parse can be
// abandoned. The goroutine owns the scratch buffer and returns it to the
// pool when the parse ends.
func (r *Rasterizer) decode(ctx context.Context, doc []byte) (*oksvg.SvgIcon, error) {
	in := getBuffer()
	in.Write(doc)

	done := make(chan decodeResult, 1)
	go func() {
		defer putBuffer(in)
		icon, err := r.readIcon(in)
		done <- decodeResult{icon: icon, err: err}
	}()

	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, res.err)
		}
		return res.icon, nil
	case <-timer.C:
		r.logger.Warn("svg decode timed out", "timeout", r.Timeout)
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DecodeImage decodes PNG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// Bounds returns the pixel dimensions of a PNG.
func Bounds(data []byte) (width, height int, err error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
