// FileCache provides read access to catalog and icon source files using
// memory-mapped files.
//
// Icon sources are small and read many times (every render of a style
// variant), so they are mapped once and sliced from memory afterwards.
// Entries are evicted explicitly when the watcher observes a change, because
// a mapping keeps showing the old inode after an editor replaces the file.
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive writes)
//
// **Lifecycle:**
//  1. NewFileCache once at startup, shared by catalog and icon loading
//  2. ReadFile on every load, Evict from the watcher on change
//  3. Close when the process exits
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// FileCache maps files on first access and serves their bytes afterwards.
type FileCache interface {
	// ReadFile returns the file content. The returned slice is a copy and
	// stays valid after Evict or Close.
	ReadFile(path string) ([]byte, error)

	// Evict unmaps path so the next ReadFile sees fresh content.
	Evict(path string)

	// Size returns number of currently cached files.
	//
	// Useful for monitoring cache usage against MaxFiles.
	Size() int

	// Stats returns current cache metrics.
	//
	// Provides observability into cache behavior:
	//   - Hit/miss ratio
	//   - Mmap failures (fallback usage)
	//   - Evictions triggered by the watcher
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep mapped (0 = unlimited).
	// When the limit is reached ReadFile falls back to os.ReadFile
	// without caching.
	MaxFiles int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns defaults sized for an icon set of a few
// thousand sources.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{MaxFiles: 8192}
}

// FileCacheStats tracks cache metrics.
type FileCacheStats struct {
	FilesCached  int
	CacheHits    int64
	CacheMisses  int64
	MmapFailures int64
	Evictions    int64
}

type mappedFile struct {
	data mmap.MMap // nil for empty files and fallback reads
	file *os.File
	copy []byte // fallback content when mmap failed
}

func (mf *mappedFile) bytes() []byte {
	if mf.data != nil {
		return mf.data
	}
	return mf.copy
}

func (mf *mappedFile) release() error {
	var errs []error
	if mf.data != nil {
		if err := mf.data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
	}
	if mf.file != nil {
		if err := mf.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// fileCacheImpl implements FileCache.
//
// Thread Safety:
//   - mu guards files; hits take the read lock only
//   - Counters are atomics and may be read without the lock
type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	// files maps a path to its mapping
	mu    sync.RWMutex
	files map[string]*mappedFile

	// Statistics
	hits         atomic.Int64
	misses       atomic.Int64
	mmapFailures atomic.Int64
	evictions    atomic.Int64
}

// NewFileCache creates a new FileCache. A nil config uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	return &fileCacheImpl{
		config: config,
		logger: OrDefault(config.Logger),
		files:  make(map[string]*mappedFile),
	}
}

func (fc *fileCacheImpl) ReadFile(path string) ([]byte, error) {
	fc.mu.RLock()
	if mf, ok := fc.files[path]; ok {
		out := cloneBytes(mf.bytes())
		fc.mu.RUnlock()
		fc.hits.Add(1)
		return out, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine might have loaded it while we waited.
	if mf, ok := fc.files[path]; ok {
		fc.hits.Add(1)
		return cloneBytes(mf.bytes()), nil
	}
	fc.misses.Add(1)

	if fc.config.MaxFiles > 0 && len(fc.files) >= fc.config.MaxFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %q: %w", path, err)
		}
		return data, nil
	}

	mf, err := fc.load(path)
	if err != nil {
		return nil, err
	}
	fc.files[path] = mf
	return cloneBytes(mf.bytes()), nil
}

// load opens and maps a file, falling back to os.ReadFile if mmap fails.
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) load(path string) (*mappedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", path, err)
	}
	if stat.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%q is a directory", path)
	}

	// Can't mmap zero bytes.
	if stat.Size() == 0 {
		return &mappedFile{file: file}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback", "file", path, "size", stat.Size(), "error", err)
		fc.mmapFailures.Add(1)
		file.Close()

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w", path, err, readErr)
		}
		return &mappedFile{copy: content}, nil
	}

	return &mappedFile{data: data, file: file}, nil
}

func (fc *fileCacheImpl) Evict(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	mf, ok := fc.files[path]
	if !ok {
		return
	}
	delete(fc.files, path)
	fc.evictions.Add(1)
	if err := mf.release(); err != nil {
		fc.logger.Warn("failed to release evicted file", "path", path, "error", err)
	}
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.files)
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	return FileCacheStats{
		FilesCached:  fc.Size(),
		CacheHits:    fc.hits.Load(),
		CacheMisses:  fc.misses.Load(),
		MmapFailures: fc.mmapFailures.Load(),
		Evictions:    fc.evictions.Load(),
	}
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.files {
		if err := mf.release(); err != nil {
			fc.logger.Warn("failed to release file", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%q: %w", path, err))
		}
	}
	fc.files = make(map[string]*mappedFile)

	fc.logger.Debug("FileCache closed",
		"cache_hits", fc.hits.Load(),
		"cache_misses", fc.misses.Load(),
		"mmap_failures", fc.mmapFailures.Load())

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %w", errors.Join(errs...))
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
