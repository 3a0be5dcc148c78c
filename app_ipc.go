package main

import (
	"ghostnote/internal/ipc"
)

// Execute services a request arriving over the control pipe. Implements
// ipc.Handler.
func (a *App) Execute(req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CmdActivate:
		a.bringToFront()
		return ipc.Response{OK: true}
	case ipc.CmdToggleLock:
		if err := a.ToggleLock(); err != nil {
			return ipc.Response{Error: err.Error()}
		}
		return ipc.Response{OK: true, Detail: a.LockState()}
	case ipc.CmdStatus:
		return ipc.Response{OK: true, Detail: a.LockState()}
	case ipc.CmdQuit:
		// Quit asynchronously so the response still reaches the client
		// before the pipe server is torn down.
		go a.Quit()
		return ipc.Response{OK: true}
	default:
		return ipc.Response{Error: "unknown command: " + req.Command}
	}
}
