package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"ghostnote/internal/ipc"
)

func overrideSend(t *testing.T, fn func(string, ipc.Request) (ipc.Response, error)) {
	t.Helper()
	orig := sendFn
	sendFn = fn
	t.Cleanup(func() { sendFn = orig })
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"activate", []string{"activate"}, ipc.CmdActivate, false},
		{"toggle lock", []string{"toggle-lock"}, ipc.CmdToggleLock, false},
		{"status", []string{"status"}, ipc.CmdStatus, false},
		{"quit", []string{"quit"}, ipc.CmdQuit, false},
		{"unknown", []string{"explode"}, "", true},
		{"trailing args", []string{"status", "extra"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseCommand(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if req.Command != tt.want {
				t.Errorf("command = %q, want %q", req.Command, tt.want)
			}
		})
	}
}

func TestRunPrintsDetail(t *testing.T) {
	overrideSend(t, func(_ string, req ipc.Request) (ipc.Response, error) {
		if req.Command != ipc.CmdStatus {
			t.Errorf("sent command = %q", req.Command)
		}
		return ipc.Response{OK: true, Detail: "locked"}, nil
	})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"status"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run = %d, stderr = %s", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "locked" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunServerError(t *testing.T) {
	overrideSend(t, func(string, ipc.Request) (ipc.Response, error) {
		return ipc.Response{Error: "lock toggle failed"}, nil
	})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"toggle-lock"}, &stdout, &stderr); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "lock toggle failed") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunNoServer(t *testing.T) {
	overrideSend(t, func(string, ipc.Request) (ipc.Response, error) {
		return ipc.Response{}, errors.New("dial failed")
	})
	origConn := isConnectionErrorFn
	isConnectionErrorFn = func(error) bool { return true }
	t.Cleanup(func() { isConnectionErrorFn = origConn })

	var stdout, stderr bytes.Buffer
	if code := run([]string{"activate"}, &stdout, &stderr); code != 1 {
		t.Fatalf("run = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "no GhostNote instance") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Errorf("run with no args = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if code := run([]string{"--help"}, &stdout, &stderr); code != 0 {
		t.Errorf("run --help = %d, want 0", code)
	}
}
