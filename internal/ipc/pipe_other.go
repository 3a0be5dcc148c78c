//go:build !windows

package ipc

import "errors"

// errUnsupported is returned off Windows, where named pipes do not exist and
// single-instance activation is not provided.
var errUnsupported = errors.New("ipc pipe transport is only available on windows")

// PipeServer is a stub off Windows.
type PipeServer struct {
	pipeName string
}

// NewPipeServer constructs a stub server.
func NewPipeServer(pipeName string, handler Handler) *PipeServer {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	return &PipeServer{pipeName: pipeName}
}

// PipeName returns the configured pipe name.
func (s *PipeServer) PipeName() string { return s.pipeName }

// Start reports that the transport is unavailable.
func (s *PipeServer) Start() error { return errUnsupported }

// Stop is a no-op.
func (s *PipeServer) Stop() error { return nil }

// Send reports that the transport is unavailable.
func Send(pipeName string, req Request) (Response, error) {
	return Response{}, errUnsupported
}

// IsConnectionError always reports false for the stub transport.
func IsConnectionError(err error) bool { return false }
