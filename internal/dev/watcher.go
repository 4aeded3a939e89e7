package dev

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// ChangeType classifies a changed file by what the dev server must do
// about it.
type ChangeType int

const (
	// ChangeData is a file a static paths generator may read.
	ChangeData ChangeType = iota
	// ChangeManifest is a route manifest.
	ChangeManifest
	// ChangeConfig is meridian.json or meridian.toml.
	ChangeConfig
	// ChangeSource is Go source, which needs a restart.
	ChangeSource
)

func (t ChangeType) String() string {
	switch t {
	case ChangeManifest:
		return "manifest"
	case ChangeConfig:
		return "config"
	case ChangeSource:
		return "source"
	default:
		return "data"
	}
}

// Change is a created, modified or deleted file.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the files and directories to watch.
	Paths []string

	// Manifests are route manifest files. Files named routes.json or
	// routes.msgpack are manifests too.
	Manifests []string

	// Ignore holds names, path fragments with a slash, or globs.
	Ignore []string

	// Interval is the polling interval. Default: 250ms.
	Interval time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"dist",
	"tmp",
	"*_test.go",
	"*.swp",
	"*.tmp",
	"*~",
}

type fileState struct {
	mod  time.Time
	size int64
}

// Watcher polls the configured paths and reports changes. One poll
// reports at most one change per ChangeType, so a burst of writes to a
// data directory costs one reload.
type Watcher struct {
	config WatcherConfig

	mu       sync.Mutex
	onChange func(Change)
	stop     chan struct{}
	files    map[string]fileState
}

// NewWatcher creates a file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 250 * time.Millisecond
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}
	return &Watcher{config: config}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called. Files present at start
// are the baseline and are not reported.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stop != nil {
		w.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	w.stop = stop
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.stop == stop {
			w.stop = nil
		}
		w.mu.Unlock()
	}()

	w.files = w.snapshot()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

// Stop stops a running watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
}

// IsRunning reports whether Start is polling.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop != nil
}

func (w *Watcher) snapshot() map[string]fileState {
	files := make(map[string]fileState)
	for _, root := range w.config.Paths {
		filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if p != root && w.shouldIgnore(p) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				files[p] = fileState{mod: info.ModTime(), size: info.Size()}
			}
			return nil
		})
	}
	return files
}

// poll diffs a fresh snapshot against the previous one. Only the Start
// goroutine touches w.files.
func (w *Watcher) poll() {
	current := w.snapshot()

	var changed []string
	for p, st := range current {
		if prev, ok := w.files[p]; !ok || prev != st {
			changed = append(changed, p)
		}
	}
	for p := range w.files {
		if _, ok := current[p]; !ok {
			changed = append(changed, p)
		}
	}
	w.files = current
	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)

	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	reported := make(map[ChangeType]bool)
	for _, p := range changed {
		t := w.classify(p)
		if !reported[t] {
			reported[t] = true
			callback(Change{Path: p, Type: t})
		}
	}
}

// shouldIgnore matches a name against every path segment, a pattern with
// a slash against the path, and a glob against the base name (or the path
// when the glob has a slash).
func (w *Watcher) shouldIgnore(p string) bool {
	slashed := filepath.ToSlash(p)
	segments := strings.Split(slashed, "/")
	base := segments[len(segments)-1]

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		hasSlash := strings.Contains(pattern, "/")
		switch {
		case pattern == "":
		case strings.ContainsAny(pattern, "*?["):
			target := base
			if hasSlash {
				target = slashed
			}
			if ok, _ := path.Match(pattern, target); ok {
				return true
			}
		case hasSlash:
			if strings.Contains("/"+slashed+"/", "/"+strings.Trim(pattern, "/")+"/") {
				return true
			}
		case slices.Contains(segments, pattern):
			return true
		}
	}
	return false
}

func (w *Watcher) classify(p string) ChangeType {
	for _, m := range w.config.Manifests {
		if filepath.Clean(m) == filepath.Clean(p) {
			return ChangeManifest
		}
	}
	return classifyChange(p)
}

// classifyChange determines the type of change from the file name.
func classifyChange(p string) ChangeType {
	base := strings.ToLower(filepath.Base(p))
	ext := filepath.Ext(base)
	switch {
	case base == "meridian.json" || base == "meridian.toml":
		return ChangeConfig
	case strings.TrimSuffix(base, ext) == "routes" && (ext == ".json" || ext == ".msgpack" || ext == ".mpk"):
		return ChangeManifest
	case ext == ".go" || ext == ".templ":
		return ChangeSource
	default:
		return ChangeData
	}
}
