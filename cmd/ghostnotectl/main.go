// ghostnotectl drives a running GhostNote instance over its control pipe.
//
// Usage:
//
//	ghostnotectl activate     show the overlay and bring it forward
//	ghostnotectl toggle-lock  flip the lock state
//	ghostnotectl status       print the lock state
//	ghostnotectl quit         shut the running instance down
package main

import (
	"fmt"
	"io"
	"os"

	"ghostnote/internal/ipc"
)

var (
	sendFn              = ipc.Send
	isConnectionErrorFn = ipc.IsConnectionError
	exitFn              = os.Exit
)

func main() {
	exitFn(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return 1
		}
		return 0
	}

	req, err := parseCommand(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		printUsage(stderr)
		return 1
	}

	pipeName := ipc.DefaultPipeName()
	resp, err := sendFn("", req)
	if err != nil {
		if isConnectionErrorFn(err) {
			fmt.Fprintf(stderr, "no GhostNote instance running on %s\n", pipeName)
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !resp.OK {
		fmt.Fprintln(stderr, resp.Error)
		return 1
	}
	if resp.Detail != "" {
		fmt.Fprintln(stdout, resp.Detail)
	}
	return 0
}

func parseCommand(args []string) (ipc.Request, error) {
	cmd := args[0]
	switch cmd {
	case ipc.CmdActivate, ipc.CmdToggleLock, ipc.CmdStatus, ipc.CmdQuit:
	default:
		return ipc.Request{}, fmt.Errorf("unknown command %q", cmd)
	}
	if len(args) > 1 {
		return ipc.Request{}, fmt.Errorf("command %q takes no arguments", cmd)
	}
	return ipc.Request{Command: cmd}, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `usage: ghostnotectl <command>

commands:
  activate     show the overlay and bring it forward
  toggle-lock  flip the lock state
  status       print the lock state
  quit         shut the running instance down
`)
}
