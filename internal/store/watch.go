package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/usersoap/internal/debug"
)

// WatchEvent describes a change to the data file seen by Watch
type WatchEvent struct {
	Path string
	Op   string

	// Removed is set when the file was deleted or renamed away
	Removed bool

	// External is set when the file no longer holds the bytes this store
	// last read or wrote
	External bool
}

// Watch reports changes to the data file until ctx is done or stop is called.
// The parent directory is watched so atomic replacements are seen.
// The store never reloads on its own; every operation already reads the file.
func (s *FileStore) Watch(ctx context.Context, onEvent func(WatchEvent)) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(s.path)
	stopChan := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Closed on ctx cancellation as well as by stop
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if ev, ok := s.classify(event); ok {
					onEvent(ev)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.LogStore("watcher error on %s: %v", dir, err)
			case <-stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			close(stopChan)
			watcher.Close()
			wg.Wait()
		})
	}
	return stop, nil
}

func (s *FileStore) classify(event fsnotify.Event) (WatchEvent, bool) {
	ev := WatchEvent{Path: event.Name, Op: event.Op.String()}

	switch {
	case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
		data, err := os.ReadFile(s.path)
		if err != nil {
			// Replaced again before we could read it; the next event covers it
			return ev, false
		}
		ev.External = !s.matchesLast(data)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		ev.Removed = true
		ev.External = true
	default:
		return ev, false
	}
	return ev, true
}
