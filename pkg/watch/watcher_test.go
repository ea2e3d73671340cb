package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/iconpark/catalogs"
	"github.com/gnana997/iconpark/pkg/catalog"
	"github.com/gnana997/iconpark/pkg/registry"
	"github.com/gnana997/iconpark/pkg/util"
)

const testDebounce = 50 * time.Millisecond

const extraIcon = `<svg width="48" height="48" viewBox="0 0 48 48" fill="none" xmlns="http://www.w3.org/2000/svg"><path d="M24 4L8 28H24L20 44L40 18H24L28 4H24Z" fill="#2F88FF" stroke="#333" stroke-width="4" stroke-linejoin="round"/></svg>`

// workspace copies the embedded catalog and sources into a temp directory.
func workspace(t *testing.T) (catalogPath, iconsDir string) {
	t.Helper()
	root := t.TempDir()
	catalogPath = filepath.Join(root, "icons.json")
	iconsDir = filepath.Join(root, "svg")

	require.NoError(t, os.WriteFile(catalogPath, catalogs.IconsJSON, 0o644))
	require.NoError(t, os.MkdirAll(iconsDir, 0o755))
	err := fs.WalkDir(catalogs.Sources(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(catalogs.Sources(), p)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(iconsDir, p), data, 0o644)
	})
	require.NoError(t, err)
	return catalogPath, iconsDir
}

type reloadRecorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan []string
}

func newRecorder() *reloadRecorder {
	return &reloadRecorder{ch: make(chan []string, 16)}
}

func (r *reloadRecorder) reload(changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- changed
	return nil
}

func (r *reloadRecorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case changed := <-r.ch:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered")
		return nil
	}
}

func (r *reloadRecorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case changed := <-r.ch:
		t.Fatalf("unexpected reload for %v", changed)
	case <-time.After(4 * testDebounce):
	}
}

func startWatcher(t *testing.T, reload ReloadFunc, paths ...string) *Watcher {
	t.Helper()
	opts := DefaultOptions()
	opts.Debounce = testDebounce
	w, err := New(reload, opts, nil)
	require.NoError(t, err)
	for _, p := range paths {
		require.NoError(t, w.Add(p))
	}
	w.Start()
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestWatcher_ReloadsOnSourceChange(t *testing.T) {
	_, iconsDir := workspace(t)
	rec := newRecorder()
	startWatcher(t, rec.reload, iconsDir)

	path := filepath.Join(iconsDir, "zap.svg")
	require.NoError(t, os.WriteFile(path, []byte(extraIcon), 0o644))

	changed := rec.wait(t)
	assert.Contains(t, changed, path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	_, iconsDir := workspace(t)
	rec := newRecorder()
	startWatcher(t, rec.reload, iconsDir)

	require.NoError(t, os.WriteFile(filepath.Join(iconsDir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(iconsDir, ".draft.svg"), []byte(extraIcon), 0o644))
	rec.expectNone(t)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	_, iconsDir := workspace(t)
	rec := newRecorder()
	startWatcher(t, rec.reload, iconsDir)

	for _, name := range []string{"a.svg", "b.svg", "c.svg"} {
		require.NoError(t, os.WriteFile(filepath.Join(iconsDir, name), []byte(extraIcon), 0o644))
	}

	changed := rec.wait(t)
	assert.Len(t, changed, 3)
	rec.expectNone(t)
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	_, iconsDir := workspace(t)
	rec := newRecorder()
	startWatcher(t, rec.reload, iconsDir)

	sub := filepath.Join(iconsDir, "extra")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(testDebounce)
	path := filepath.Join(sub, "zap.svg")
	require.NoError(t, os.WriteFile(path, []byte(extraIcon), 0o644))

	assert.Contains(t, rec.wait(t), path)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	_, iconsDir := workspace(t)
	rec := newRecorder()
	w := startWatcher(t, rec.reload, iconsDir)

	assert.True(t, w.Stats().IsRunning)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.Stats().IsRunning)
}

func TestNew_InvalidIgnorePattern(t *testing.T) {
	_, err := New(func([]string) error { return nil }, Options{Ignore: []string{"[a-"}}, nil)
	assert.Error(t, err)
}

func TestAdd_MissingPath(t *testing.T) {
	w, err := New(func([]string) error { return nil }, DefaultOptions(), nil)
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "missing")))
}

// --- loader ---

type swapTarget struct {
	mu  sync.Mutex
	qs  *catalog.QueryService
	reg *registry.Registry
}

func (s *swapTarget) Swap(qs *catalog.QueryService, reg *registry.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qs, s.reg = qs, reg
}

func (s *swapTarget) get() (*catalog.QueryService, *registry.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qs, s.reg
}

func TestLoader_Embedded(t *testing.T) {
	l := &Loader{Registry: registry.DefaultOptions()}
	qs, reg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 12, qs.Len())
	assert.Equal(t, 12, reg.Len())
	assert.Empty(t, l.Paths())
}

func TestLoader_FromDisk(t *testing.T) {
	catalogPath, iconsDir := workspace(t)
	fc := util.NewFileCache(nil)
	defer fc.Close()

	l := &Loader{CatalogPath: catalogPath, IconsDir: iconsDir, Registry: registry.DefaultOptions(), FileCache: fc}
	qs, reg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 12, qs.Len())
	assert.Equal(t, 12, reg.Len())
	assert.Equal(t, []string{catalogPath, iconsDir}, l.Paths())
}

func TestReloader_SwapsTargets(t *testing.T) {
	catalogPath, iconsDir := workspace(t)
	fc := util.NewFileCache(nil)
	defer fc.Close()
	l := &Loader{CatalogPath: catalogPath, IconsDir: iconsDir, Registry: registry.DefaultOptions(), FileCache: fc}

	// Warm the cache so the reload has to evict the catalog.
	_, _, err := l.Load()
	require.NoError(t, err)

	target := &swapTarget{}
	reload := Reloader(l, nil, target)

	require.NoError(t, os.WriteFile(filepath.Join(iconsDir, "zap.svg"), []byte(extraIcon), 0o644))
	updated := strings.Replace(string(catalogs.IconsJSON), "\n]",
		",\n  {\"id\": 13, \"title\": \"Zap\", \"name\": \"zap\", \"category\": \"Base\"}\n]", 1)
	require.NoError(t, os.WriteFile(catalogPath, []byte(updated), 0o644))

	require.NoError(t, reload([]string{catalogPath, filepath.Join(iconsDir, "zap.svg")}))
	qs, reg := target.get()
	require.NotNil(t, qs)
	assert.Equal(t, 13, qs.Len())
	assert.Equal(t, 13, reg.Len())
	_, ok := qs.GetIcon("zap")
	assert.True(t, ok)
}

func TestReloader_KeepsStateOnFailure(t *testing.T) {
	catalogPath, iconsDir := workspace(t)
	l := &Loader{CatalogPath: catalogPath, IconsDir: iconsDir, Registry: registry.DefaultOptions()}
	target := &swapTarget{}
	reload := Reloader(l, nil, target)

	require.NoError(t, os.WriteFile(catalogPath, []byte("{not json"), 0o644))
	assert.Error(t, reload([]string{catalogPath}))
	qs, _ := target.get()
	assert.Nil(t, qs)
}

func TestWatcher_EndToEnd(t *testing.T) {
	catalogPath, iconsDir := workspace(t)
	l := &Loader{CatalogPath: catalogPath, IconsDir: iconsDir, Registry: registry.DefaultOptions()}
	target := &swapTarget{}

	done := make(chan struct{}, 4)
	reload := Reloader(l, nil, target)
	w := startWatcher(t, func(changed []string) error {
		err := reload(changed)
		done <- struct{}{}
		return err
	}, l.Paths()...)

	require.NoError(t, os.WriteFile(filepath.Join(iconsDir, "zap.svg"), []byte(extraIcon), 0o644))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not triggered")
	}
	_, reg := target.get()
	require.NotNil(t, reg)
	assert.Equal(t, 13, reg.Len())
	assert.Eventually(t, func() bool { return w.Stats().Reloads >= 1 }, time.Second, 10*time.Millisecond)
}
