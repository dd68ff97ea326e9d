package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/declscan/internal/debug"
)

// Watcher re-runs the scanner whenever a watched translation unit changes.
// Events are debounced so a burst of writes (editor save, build touching
// several files) triggers a single rescan.
type Watcher struct {
	fsw      *fsnotify.Watcher
	scanner  *Scanner
	sources  []string
	watched  map[string]bool
	debounce time.Duration

	// OnRun, when set, receives the result of every rescan.
	OnRun func(*Result, error)
}

// NewWatcher watches the parent directories of sources. fsnotify cannot
// watch a file that an editor replaces by rename, so directories are
// watched and events filtered back to the source set.
func NewWatcher(scanner *Scanner, sources []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		scanner:  scanner,
		sources:  sources,
		watched:  make(map[string]bool, len(sources)),
		debounce: debounce,
	}
	dirs := make(map[string]bool)
	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			abs = filepath.Clean(src)
		}
		w.watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		debug.LogScan("watching %s\n", dir)
	}
	return w, nil
}

// Run performs an initial scan and then rescans on changes until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.rescan(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			debug.LogScan("change detected: %s %s\n", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			debug.LogScan("watcher error: %v\n", err)
		case <-fire:
			timer = nil
			fire = nil
			w.rescan(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = filepath.Clean(event.Name)
	}
	return w.watched[abs]
}

func (w *Watcher) rescan(ctx context.Context) {
	result, err := w.scanner.Run(ctx, w.sources)
	if err != nil {
		debug.LogScan("rescan failed: %v\n", err)
	}
	if w.OnRun != nil {
		w.OnRun(result, err)
	}
}
