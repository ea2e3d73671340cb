package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/iconpark/catalogs"
	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/markup"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/style"
)

const rendered = `<svg class="i-icon" width="36" height="36" fill="none"><path style="x" d="M4 4H44V44H4Z" stroke="#333" stroke-width="4"/></svg>`

func snapshot() Snapshot {
	return Snapshot{Icon: &catalog.Icon{ID: 1, Name: "add-one"}, Style: style.Default(), Generation: 3}
}

// flakySource reports ErrNotSettled for the first `pending` calls.
type flakySource struct {
	pending int32
	calls   atomic.Int32
	markup  []byte
}

func (s *flakySource) Markup(ctx context.Context, icon catalog.Icon, cfg style.Config) ([]byte, error) {
	n := s.calls.Add(1)
	if n <= s.pending {
		return nil, ErrNotSettled
	}
	return s.markup, nil
}

func TestExtractNormalized_FromRegistry(t *testing.T) {
	reg, err := registry.Load(catalogs.Sources(), registry.DefaultOptions())
	require.NoError(t, err)
	e := New(RegistrySource(reg), nil)

	out, err := e.ExtractNormalized(context.Background(), snapshot(), 0)
	require.NoError(t, err)
	assert.NoError(t, markup.Validate(out))

	svg, err := markup.Parse(out)
	require.NoError(t, err)
	w, _ := markup.Attr(svg, "width")
	assert.Equal(t, "36", w)
	ns, _ := markup.Attr(svg, "xmlns")
	assert.Equal(t, markup.SVGNamespace, ns)
}

func TestExtractNormalized_SizeOverride(t *testing.T) {
	e := New(&flakySource{markup: []byte(rendered)}, nil)
	out, err := e.ExtractNormalized(context.Background(), snapshot(), 128)
	require.NoError(t, err)

	svg, err := markup.Parse(out)
	require.NoError(t, err)
	h, _ := markup.Attr(svg, "height")
	assert.Equal(t, "128", h)
	vb, _ := markup.Attr(svg, "viewBox")
	assert.Equal(t, markup.DefaultViewBox, vb)
	assert.NotContains(t, string(out), "class=")
	assert.NotContains(t, string(out), "style=")
}

func TestExtractNormalized_SelectionMissing(t *testing.T) {
	src := &flakySource{markup: []byte(rendered)}
	e := New(src, nil)
	_, err := e.ExtractNormalized(context.Background(), Snapshot{Style: style.Default()}, 0)
	assert.ErrorIs(t, err, ErrSelectionMissing)
	assert.Equal(t, int32(0), src.calls.Load())
}

func TestExtractNormalized_SettlesOnRetry(t *testing.T) {
	src := &flakySource{pending: 1, markup: []byte(rendered)}
	e := New(src, nil)
	e.SettleDelay = 5 * time.Millisecond

	out, err := e.ExtractNormalized(context.Background(), snapshot(), 0)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestExtractNormalized_RetriesOnlyOnce(t *testing.T) {
	src := &flakySource{pending: 5, markup: []byte(rendered)}
	e := New(src, nil)
	e.SettleDelay = time.Millisecond

	_, err := e.ExtractNormalized(context.Background(), snapshot(), 0)
	assert.ErrorIs(t, err, ErrMarkupUnavailable)
	assert.ErrorIs(t, err, ErrNotSettled)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestExtractNormalized_CancelledDuringSettle(t *testing.T) {
	src := &flakySource{pending: 1, markup: []byte(rendered)}
	e := New(src, nil)
	e.SettleDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := e.ExtractNormalized(ctx, snapshot(), 0)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExtractNormalized_InvalidMarkup(t *testing.T) {
	e := New(&flakySource{markup: []byte(`<svg></svg>`)}, nil)
	_, err := e.ExtractNormalized(context.Background(), snapshot(), 0)
	assert.ErrorIs(t, err, ErrMarkupUnavailable)

	e = New(&flakySource{markup: []byte(`<p>plain text, definitely no vector graphic in here</p>`)}, nil)
	_, err = e.ExtractNormalized(context.Background(), snapshot(), 0)
	assert.ErrorIs(t, err, ErrMarkupUnavailable)
	assert.ErrorIs(t, err, markup.ErrNoSVG)
}

func TestExtractNormalized_UnknownIcon(t *testing.T) {
	reg, err := registry.Load(catalogs.Sources(), registry.DefaultOptions())
	require.NoError(t, err)
	e := New(RegistrySource(reg), nil)

	snap := snapshot()
	snap.Icon = &catalog.Icon{Name: "not-an-icon"}
	_, err = e.ExtractNormalized(context.Background(), snap, 0)
	assert.ErrorIs(t, err, ErrMarkupUnavailable)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestExtractNormalized_StaleSnapshot(t *testing.T) {
	e := New(&flakySource{markup: []byte(rendered)}, nil)
	e.IsCurrent = func(gen uint64) bool { return gen == 4 }

	_, err := e.ExtractNormalized(context.Background(), snapshot(), 0)
	assert.ErrorIs(t, err, ErrMarkupUnavailable)
	assert.Contains(t, err.Error(), "selection changed")
}
