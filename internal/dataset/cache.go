package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"bizinsights/internal/dataprocessing"
	"bizinsights/internal/files"
	"bizinsights/pkg/contracts/domain"
)

var (
	// ErrDataFileNotFound means no candidate path holds a data file.
	ErrDataFileNotFound = errors.New("data file not found")
	// ErrNotOpen is returned when the cache is used before Open.
	ErrNotOpen = errors.New("dataset cache not opened")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dataset cache closed")
)

// Snapshot is one immutable load of the dataset. Callers must not modify
// the table or the records.
type Snapshot struct {
	Path     string
	ModTime  time.Time
	LoadedAt time.Time
	Table    *dataprocessing.Table
	Records  []domain.Company
}

// Info describes the snapshot for API responses.
func (s *Snapshot) Info() domain.DatasetInfo {
	return domain.DatasetInfo{
		Path:     s.Path,
		ModTime:  s.ModTime,
		LoadedAt: s.LoadedAt,
		Rows:     len(s.Records),
	}
}

// Loader reads a data file into a raw table.
type Loader func(path string) (*dataprocessing.Table, error)

// Recorder receives cache telemetry.
type Recorder interface {
	RecordDatasetLoad(ctx context.Context, duration time.Duration, rows int, err error)
	RecordCacheLookup(ctx context.Context, hit bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordDatasetLoad(context.Context, time.Duration, int, error) {}
func (noopRecorder) RecordCacheLookup(context.Context, bool)                      {}

// Config configures a Cache.
type Config struct {
	// BaseDir anchors relative candidate paths.
	BaseDir string
	// Candidates are tried in order at Open.
	Candidates []string
	// Loader defaults to dataprocessing.ParseFile.
	Loader Loader
	// Recorder defaults to a no-op.
	Recorder Recorder
}

// Cache is a read-through cache of the company dataset keyed by file path
// and modification time. Every Snapshot call stats the file; a changed
// modification time triggers a reload. Concurrent reloads collapse into one.
type Cache struct {
	discovery *files.Discovery
	cfg       Config
	logger    *slog.Logger
	group     singleflight.Group

	mu        sync.RWMutex
	path      string
	current   *Snapshot
	listeners []func(*Snapshot)
	closed    bool

	hits       atomic.Int64
	misses     atomic.Int64
	loads      atomic.Int64
	loadErrors atomic.Int64
}

// NewCache creates an unopened cache.
func NewCache(cfg Config, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Loader == nil {
		cfg.Loader = dataprocessing.ParseFile
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	return &Cache{
		discovery: files.NewDiscovery(cfg.BaseDir),
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "dataset_cache")),
	}
}

// Open resolves the data file among the candidates and performs the first load.
// It fails with ErrDataFileNotFound when no candidate exists.
func (c *Cache) Open(ctx context.Context) (*Snapshot, error) {
	fi, err := c.discovery.Resolve(c.cfg.Candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFileNotFound, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.path = fi.Path
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "dataset resolved",
		slog.String("path", fi.Path),
		slog.Int64("size", fi.Size))

	return c.load(ctx, false)
}

// Snapshot returns the current dataset, reloading it when the file changed.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	path, cur, closed := c.path, c.current, c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClosed
	case path == "":
		return nil, ErrNotOpen
	}

	fi, err := c.discovery.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataFileNotFound, err)
	}

	if cur != nil && cur.ModTime.Equal(fi.ModTime) {
		c.hits.Add(1)
		c.cfg.Recorder.RecordCacheLookup(ctx, true)
		return cur, nil
	}

	c.misses.Add(1)
	c.cfg.Recorder.RecordCacheLookup(ctx, false)
	return c.load(ctx, false)
}

// Reload forces a fresh load regardless of the modification time.
func (c *Cache) Reload(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	path, closed := c.path, c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClosed
	case path == "":
		return nil, ErrNotOpen
	}
	return c.load(ctx, true)
}

// Invalidate drops the current snapshot; the next Snapshot call reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
}

// OnReload registers fn to run after every successful load.
func (c *Cache) OnReload(fn func(*Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Close releases the snapshot; further calls fail with ErrClosed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.current = nil
	c.listeners = nil
	return nil
}

// Loaded reports whether a snapshot is held.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	stats := map[string]interface{}{
		"path":     c.path,
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
		"loads":    c.loads.Load(),
		"errors":   c.loadErrors.Load(),
		"loaded":   c.current != nil,
	}
	if c.current != nil {
		stats["rows"] = len(c.current.Records)
		stats["mod_time"] = c.current.ModTime
		stats["loaded_at"] = c.current.LoadedAt
	}
	return stats
}

func (c *Cache) load(ctx context.Context, force bool) (*Snapshot, error) {
	c.mu.RLock()
	path := c.path
	c.mu.RUnlock()

	ch := c.group.DoChan(path, func() (interface{}, error) {
		return c.doLoad(context.WithoutCancel(ctx), path, force)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) doLoad(ctx context.Context, path string, force bool) (*Snapshot, error) {
	fi, err := c.discovery.Stat(path)
	if err != nil {
		c.loadErrors.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrDataFileNotFound, err)
	}

	// A load that finished while we waited may already cover this mtime.
	c.mu.RLock()
	cur := c.current
	c.mu.RUnlock()
	if !force && cur != nil && cur.ModTime.Equal(fi.ModTime) {
		return cur, nil
	}

	start := time.Now()
	table, err := c.cfg.Loader(path)
	if err != nil {
		c.loadErrors.Add(1)
		c.cfg.Recorder.RecordDatasetLoad(ctx, time.Since(start), 0, err)
		c.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	snap := &Snapshot{
		Path:     path,
		ModTime:  fi.ModTime,
		LoadedAt: time.Now(),
		Table:    table,
		Records:  dataprocessing.Normalize(table),
	}
	duration := time.Since(start)
	c.loads.Add(1)
	c.cfg.Recorder.RecordDatasetLoad(ctx, duration, len(snap.Records), nil)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.current = snap
	listeners := make([]func(*Snapshot), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.Int("rows", len(snap.Records)),
		slog.Time("mod_time", snap.ModTime),
		slog.Duration("duration", duration))

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, nil
}
