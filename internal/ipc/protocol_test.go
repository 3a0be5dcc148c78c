package ipc

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

const testFrameLimit = 16 * 1024

func TestDefaultPipeNameHonorsTrustedEnvOverride(t *testing.T) {
	t.Setenv("GHOSTNOTE_PIPE", `\\.\pipe\ghostnote-ci_pipe`)

	if got := DefaultPipeName(); got != `\\.\pipe\ghostnote-ci_pipe` {
		t.Fatalf("DefaultPipeName() = %q, want trusted env override", got)
	}
}

func TestDefaultPipeNameRejectsUntrustedEnvOverride(t *testing.T) {
	t.Setenv("GHOSTNOTE_PIPE", `\\.\pipe\other-app`)
	t.Setenv("USERNAME", "unit-tester")

	got := DefaultPipeName()
	if got == `\\.\pipe\other-app` {
		t.Fatalf("DefaultPipeName() unexpectedly accepted untrusted env override")
	}
	if !strings.HasPrefix(got, defaultPipePrefix) {
		t.Fatalf("DefaultPipeName() = %q, want %q prefix", got, defaultPipePrefix)
	}
}

func TestDefaultPipeNameSanitizesUsername(t *testing.T) {
	t.Setenv("GHOSTNOTE_PIPE", "")
	t.Setenv("USERNAME", "unit user!")

	got := DefaultPipeName()
	want := `\\.\pipe\ghostnote-unit_user_`
	if got != want {
		t.Fatalf("DefaultPipeName() = %q, want %q", got, want)
	}
}

func TestDefaultPipeNameFallbackWhenUsernameEmpty(t *testing.T) {
	t.Setenv("GHOSTNOTE_PIPE", "")
	t.Setenv("USERNAME", "")

	got := DefaultPipeName()

	// When USERNAME is empty, user.Current() may succeed (returning OS user)
	// or fail (falling back to "unknown"). Either way the pipe name must have
	// a non-empty suffix after the prefix.
	if !strings.HasPrefix(got, defaultPipePrefix) {
		t.Fatalf("DefaultPipeName() = %q, want prefix %q", got, defaultPipePrefix)
	}
	suffix := strings.TrimPrefix(got, defaultPipePrefix)
	if suffix == "" {
		t.Fatalf("DefaultPipeName() = %q, suffix after prefix must not be empty", got)
	}
}

func TestDecodeRequestNilArgsInitializedToEmpty(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"command": CmdActivate})
	if err != nil {
		t.Fatalf("json.Marshal error = %v", err)
	}

	req, err := decodeRequest(raw)
	if err != nil {
		t.Fatalf("decodeRequest error = %v", err)
	}
	if req.Args == nil {
		t.Error("decodeRequest: Args is nil, want empty slice")
	}
	if len(req.Args) != 0 {
		t.Errorf("decodeRequest: Args has %d entries, want 0", len(req.Args))
	}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	rawReq, err := encodeRequest(Request{Command: CmdStatus, Args: []string{"verbose"}})
	if err != nil {
		t.Fatalf("encodeRequest: %v", err)
	}
	req, err := decodeRequest(rawReq)
	if err != nil {
		t.Fatalf("decodeRequest: %v", err)
	}
	if req.Command != CmdStatus || len(req.Args) != 1 || req.Args[0] != "verbose" {
		t.Errorf("request round trip = %+v", req)
	}

	rawResp, err := encodeResponse(Response{OK: true, Detail: "locked"})
	if err != nil {
		t.Fatalf("encodeResponse: %v", err)
	}
	resp, err := decodeResponse(rawResp)
	if err != nil {
		t.Fatalf("decodeResponse: %v", err)
	}
	if !resp.OK || resp.Detail != "locked" {
		t.Errorf("response round trip = %+v", resp)
	}
}

func TestReadDelimitedFrameWithinLimit(t *testing.T) {
	payload := `{"command":"activate"}` + "\n"
	reader := bufio.NewReaderSize(strings.NewReader(payload), testFrameLimit+1)

	raw, err := readDelimitedFrame(reader, testFrameLimit)
	if err != nil {
		t.Fatalf("readDelimitedFrame() error = %v", err)
	}
	if string(raw) != payload {
		t.Fatalf("readDelimitedFrame() = %q, want %q", string(raw), payload)
	}
}

func TestReadDelimitedFrameRejectsOversizedFrame(t *testing.T) {
	oversized := strings.Repeat("a", testFrameLimit+1) + "\n"
	reader := bufio.NewReaderSize(strings.NewReader(oversized), testFrameLimit+1)

	if _, err := readDelimitedFrame(reader, testFrameLimit); err == nil {
		t.Fatalf("readDelimitedFrame() expected size error")
	}
}

func TestReadDelimitedFrameAcceptsEOFWithoutDelimiter(t *testing.T) {
	payload := `{"command":"status"}`
	reader := bufio.NewReaderSize(strings.NewReader(payload), testFrameLimit+1)

	raw, err := readDelimitedFrame(reader, testFrameLimit)
	if err != nil {
		t.Fatalf("readDelimitedFrame() error = %v", err)
	}
	if string(raw) != payload {
		t.Fatalf("readDelimitedFrame() = %q, want %q", string(raw), payload)
	}
}

func TestReadDelimitedFrameReturnsEOFOnEmptyInput(t *testing.T) {
	reader := bufio.NewReaderSize(strings.NewReader(""), testFrameLimit+1)

	if _, err := readDelimitedFrame(reader, testFrameLimit); err != io.EOF {
		t.Fatalf("readDelimitedFrame() error = %v, want io.EOF", err)
	}
}
