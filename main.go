package main

import (
	"embed"
	"errors"
	"log/slog"
	"os"

	"ghostnote/internal/alertlog"
	"ghostnote/internal/ipc"
	"ghostnote/internal/singleinstance"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

//go:embed all:frontend/dist
var assets embed.FS

// appVersion is stamped at build time via -ldflags "-X main.appVersion=...".
var appVersion = "0.0.0-dev"

const windowTitle = "GhostNote"

func main() {
	// Single-instance check BEFORE any Wails/WebView2 initialization. A
	// second overlay would fight the first over hooks and hotkeys.
	mutexLock, err := singleinstance.TryLock(singleinstance.DefaultMutexName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[single] another instance is already running, signaling activation")
		if _, sendErr := ipc.Send("", ipc.Request{Command: ipc.CmdActivate}); sendErr != nil {
			slog.Warn("[single] failed to signal existing instance", "error", sendErr)
		}
		return
	}
	if err != nil {
		// Mutex creation failed for an unexpected reason. Continue startup;
		// a broken guard is better than no overlay at all.
		slog.Warn("[single] mutex creation failed, proceeding without single-instance guard", "error", err)
	}
	if mutexLock != nil {
		defer func() {
			if releaseErr := mutexLock.Release(); releaseErr != nil {
				slog.Warn("[single] mutex release failed", "error", releaseErr)
			}
		}()
	}

	app := NewApp()

	// Route warnings and errors through the alert ring so the frontend can
	// show them; everything still reaches stderr.
	base := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(alertlog.NewHandler(base, app.alerts, slog.LevelWarn, app.notifyAlert)))

	err = wails.Run(&options.App{
		Title:         windowTitle,
		Width:         app.initialWidth(),
		Height:        app.initialHeight(),
		MinWidth:      200,
		MinHeight:     150,
		Frameless:     true,
		AlwaysOnTop:   true,
		DisableResize: false,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			DisableWindowIcon:    true,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []any{
			app,
		},
	})

	if err != nil {
		slog.Error("[app] wails run failed", "error", err)
	}
}
