// Package source is Garden's file collaborator (spec §6): reading the
// source file and its cache sidecar, and watching the source for
// changes that should trigger a new evaluate-sequence cycle.
//
// Grounded on the teacher's internal/nfsmount/graphfs.go use of
// go-billy/v5 as the filesystem abstraction (here osfs, not a virtual
// graph-backed billy.Filesystem, since Garden only ever reads two real
// paths) and on cmd/agent.go's fsnotify-driven reconcile loop, adapted
// from "watch a mounted tree" to "watch one source file".
package source

import (
	"fmt"
	"io"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/fsnotify/fsnotify"
)

// CachePath derives the sidecar path for a source file (spec §6:
// "<file>.cache"), unless override is non-empty, in which case it wins
// (the --cache flag).
func CachePath(sourcePath, override string) string {
	if override != "" {
		return override
	}
	return sourcePath + ".cache"
}

// Files is the billy-backed reader for the source file and its cache
// sidecar. A single Files value is rooted at the directory containing
// the source file so relative billy paths stay short and chroot-safe.
type Files struct {
	fs   billy.Filesystem
	root string
}

// Open roots a Files at the directory containing sourcePath.
func Open(sourcePath string) *Files {
	dir := filepath.Dir(sourcePath)
	return &Files{fs: osfs.New(dir), root: dir}
}

// FromFS builds a Files over an already-constructed billy.Filesystem
// rooted at root, for tests to substitute memfs for osfs.
func FromFS(fs billy.Filesystem, root string) *Files {
	return &Files{fs: fs, root: root}
}

func (f *Files) rel(path string) string {
	r, err := filepath.Rel(f.root, path)
	if err != nil {
		return path
	}
	return r
}

// ReadSource reads the full contents of the source file.
func (f *Files) ReadSource(sourcePath string) (string, error) {
	return f.readFile(sourcePath)
}

// ReadCache reads the cache sidecar's bytes. A missing file is returned
// as an error like any other read failure; the caller (cmd's loadDriver)
// treats any read failure as "start cold".
func (f *Files) ReadCache(cachePath string) ([]byte, error) {
	data, err := f.readBytes(cachePath)
	if err != nil {
		return nil, fmt.Errorf("source: reading cache %s: %w", cachePath, err)
	}
	return data, nil
}

// WriteCache persists data to the cache sidecar, truncating any prior
// contents (spec §4.7: the cache file is overwritten wholesale each
// cycle, never appended to).
func (f *Files) WriteCache(cachePath string, data []byte) error {
	file, err := f.fs.Create(f.rel(cachePath))
	if err != nil {
		return fmt.Errorf("source: creating cache %s: %w", cachePath, err)
	}
	defer func() { _ = file.Close() }()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("source: writing cache %s: %w", cachePath, err)
	}
	return nil
}

func (f *Files) readFile(path string) (string, error) {
	data, err := f.readBytes(path)
	if err != nil {
		return "", fmt.Errorf("source: reading %s: %w", path, err)
	}
	return string(data), nil
}

func (f *Files) readBytes(path string) ([]byte, error) {
	file, err := f.fs.Open(f.rel(path))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}

// Watcher signals write, create, and rename events on the watched path.
// At most one signal is pending at a time: events that arrive while one
// is still unread are dropped, collapsing fsnotify's finer-grained stream (spec
// §6: "driven by fsnotify, but the driver also exposes a --poll
// fallback").
type Watcher struct {
	w    *fsnotify.Watcher
	Events chan struct{}
	Errors chan error
}

// Watch attaches an fsnotify watch to the directory containing path (not
// path itself — editors commonly replace a file via rename+create, which
// only a directory watch reliably observes) and filters the event stream
// down to events naming path.
func Watch(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("source: starting watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("source: watching %s: %w", dir, err)
	}

	out := &Watcher{w: w, Events: make(chan struct{}, 1), Errors: make(chan error, 1)}
	base := filepath.Base(path)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(out.Events)
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out.Events <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(out.Errors)
					return
				}
				select {
				case out.Errors <- err:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}
