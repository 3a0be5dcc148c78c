package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"ghostnote/internal/alertlog"
	"ghostnote/internal/config"
	"ghostnote/internal/hotkeys"
	"ghostnote/internal/ipc"
	"ghostnote/internal/overlay"
	"ghostnote/internal/snippets"
	"ghostnote/internal/updater"
	"ghostnote/internal/winstyle"
)

// App is the Wails-bound application service.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// Configuration state.
	// Lock ordering (outer -> inner): cfgSaveMu -> cfgMu.
	// Independent locks: windowMu, ctxMu. Do not assume ordering across them.
	cfgMu      sync.RWMutex
	cfg        config.Config
	configPath string
	cfgSaveMu  sync.Mutex
	watcher    *config.Watcher

	// Native window plumbing. hwnd is resolved once during startup; zero
	// until then, which every style operation treats as "window not ready".
	native       winstyle.Native
	hwnd         winstyle.Handle
	affinity     *winstyle.AffinityController
	clickThrough *winstyle.ClickThroughController

	// Lock state machine and the Escape signal feed from the keyboard hook.
	machine  *overlay.Machine
	unlockCh chan struct{}

	// Global hotkeys.
	router *hotkeys.Router

	// Backend services.
	pipeServer *ipc.PipeServer
	store      *snippets.Store
	alerts     *alertlog.Ring
	checker    *updater.Checker

	// Window visibility state.
	windowMu       sync.Mutex
	windowVisible  bool
	windowToggling atomic.Bool // CAS guard against concurrent visibility toggles

	shuttingDown atomic.Bool // set at the start of shutdown(); checked by worker recovery

	// Background worker cancellation/waits.
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// NewApp creates the app service. The config is loaded here, before the
// window exists, so main can size the window from it.
func NewApp() *App {
	a := &App{
		alerts:   alertlog.NewRing(0),
		unlockCh: make(chan struct{}, 1),
		checker:  updater.New(releaseRepo, appVersion),
	}
	a.configPath = config.DefaultPath()
	cfg, err := config.EnsureFile(a.configPath)
	if err != nil {
		slog.Warn("[app] config load failed, starting with defaults", "path", a.configPath, "error", err)
	}
	a.setConfigSnapshot(cfg)
	return a
}

// releaseRepo is the GitHub repository queried for updates.
const releaseRepo = "ghostnote/ghostnote"

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	return ctx
}

func (a *App) getConfigSnapshot() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return config.Clone(a.cfg)
}

func (a *App) setConfigSnapshot(cfg config.Config) {
	a.cfgMu.Lock()
	a.cfg = cfg
	a.cfgMu.Unlock()
}

// updateConfig applies mutate to the current config under lock and persists
// the result. The watcher is muted around the save so our own write does not
// echo back as an external change.
func (a *App) updateConfig(mutate func(*config.Config)) config.Config {
	a.cfgSaveMu.Lock()
	defer a.cfgSaveMu.Unlock()

	a.cfgMu.Lock()
	mutate(&a.cfg)
	cfg := config.Clone(a.cfg)
	a.cfgMu.Unlock()

	if a.watcher != nil {
		a.watcher.Mute()
		defer a.watcher.Unmute()
	}
	saved, err := config.Save(a.configPath, cfg)
	if err != nil {
		slog.Warn("[app] config save failed", "error", err)
		return cfg
	}
	// Save clamps and normalizes; keep the in-memory copy in sync with disk.
	a.setConfigSnapshot(saved)
	return saved
}

func (a *App) initialWidth() int  { return a.getConfigSnapshot().Width }
func (a *App) initialHeight() int { return a.getConfigSnapshot().Height }
