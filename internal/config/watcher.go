package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of filesystem events an editor save or
// an atomic rename produces into a single reload.
const watchDebounce = 200 * time.Millisecond

// muteGrace extends a mute past Unmute. The filesystem events of the
// application's own save are delivered asynchronously and may arrive after
// Save has returned and the caller has unmuted; without the grace window
// every save would echo back as an external reload and feed itself.
const muteGrace = 500 * time.Millisecond

// Watcher reloads the config file when it changes on disk, so edits made in
// an external editor take effect without restarting the overlay.
type Watcher struct {
	path     string
	onReload func(Config)

	fw         *fsnotify.Watcher
	muted      atomic.Bool
	quietUntil atomic.Int64 // unix nanos; events observed before this are dropped
	wg         sync.WaitGroup
	stopCh     chan struct{}
}

// NewWatcher watches path and calls onReload with each successfully reloaded
// config. The parent directory is watched rather than the file itself:
// atomic saves replace the file by rename, which would silently detach a
// file-level watch.
func NewWatcher(path string, onReload func(Config)) (*Watcher, error) {
	if onReload == nil {
		return nil, errors.New("onReload callback is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("config watcher: mkdir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		onReload: onReload,
		fw:       fw,
		stopCh:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Mute suppresses reload callbacks, used around the application's own saves
// so they do not echo back as external edits.
func (w *Watcher) Mute() {
	w.muted.Store(true)
}

// Unmute re-enables reload callbacks after a short grace window that absorbs
// the still-in-flight events of the save the mute was protecting.
func (w *Watcher) Unmute() {
	w.quietUntil.Store(time.Now().Add(muteGrace).UnixNano())
	w.muted.Store(false)
}

// suppressed reports whether an event observed now belongs to one of our own
// saves rather than an external edit.
func (w *Watcher) suppressed() bool {
	return w.muted.Load() || time.Now().UnixNano() < w.quietUntil.Load()
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	close(w.stopCh)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			// Suppression is decided at observation time: a muted event must
			// not schedule a reload that fires after the mute ends.
			if !w.relevant(event) || w.suppressed() {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("[config] watcher error", "error", err)
		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	if w.muted.Load() {
		return
	}
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("[config] external change failed to load, keeping current settings", "error", err)
		return
	}
	slog.Info("[config] reloaded after external change", "path", w.path)
	w.onReload(cfg)
}
