// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sock implements the server/client socket primitives: bind/listen
// plus multishot accept for the server socket, and provided-buffer
// recv/full-length send for the client socket. Grounded directly on
// original_source/src/socket.cpp.
package sock

import (
	"golang.org/x/sys/unix"

	"github.com/ringloop/ringhttpd/internal/gateway"
	"github.com/ringloop/ringhttpd/internal/iouring"
	"github.com/ringloop/ringhttpd/ringerr"
)

// Server is a listening socket bound under SO_REUSEPORT, with one in-flight
// multishot accept at a time.
type Server struct {
	fd       int
	gw       *gateway.Gateway
	acceptOp *gateway.Op
	armed    bool
}

// NewServer resolves, sockets, and binds port, stopping at the first address
// that binds successfully (original_source's getaddrinfo loop); dual-stack
// vs IPv4-only behavior is left exactly as implementation-dependent as the
// source, see DESIGN.md.
func NewServer(gw *gateway.Gateway, port int, backlog int) (*Server, error) {
	// Prefer IPv6 (dual-stack on Linux by default) and fall back to IPv4,
	// mirroring getaddrinfo(AF_UNSPEC) trying candidates in order and
	// stopping at the first successful socket+bind.
	families := []int{unix.AF_INET6, unix.AF_INET}
	var lastErr error
	for _, family := range families {
		fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
		if err != nil {
			lastErr = err
			continue
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		if bindErr := bindFamily(fd, family, port); bindErr != nil {
			unix.Close(fd)
			lastErr = bindErr
			continue
		}
		if err := unix.Listen(fd, backlog); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		return &Server{fd: fd, gw: gw}, nil
	}
	return nil, ringerr.Wrap("sock.NewServer", ringerr.KindSetupFatal, lastErr)
}

func bindFamily(fd, family, port int) error {
	if family == unix.AF_INET6 {
		return unix.Bind(fd, &unix.SockaddrInet6{Port: port})
	}
	return unix.Bind(fd, &unix.SockaddrInet4{Port: port})
}

// Fd returns the raw listening descriptor.
func (s *Server) Fd() int { return s.fd }

// Accept returns the next accepted descriptor. The first call submits a
// multishot accept; later calls reuse the same in-flight Op, re-arming it
// whenever a completion lacks IORING_CQE_F_MORE (original_source's
// await_resume re-submit check).
func (s *Server) Accept() (int, error) {
	if s.acceptOp == nil {
		s.acceptOp = gateway.NewOp()
	}
	if !s.armed {
		s.gw.SubmitMultishotAccept(s.acceptOp, s.fd)
		s.armed = true
	}
	c := s.acceptOp.Wait()
	if c.Flags&iouring.IORING_CQE_F_MORE == 0 {
		s.armed = false // caller's next Accept() re-arms before waiting again
	}
	if c.Res < 0 {
		return -1, ringerr.WrapErrno("sock.Server.Accept", ringerr.KindIOTransient, gateway.ErrnoFromRes(c.Res))
	}
	return int(c.Res), nil
}

// CancelAccept submits a cancellation for the in-flight multishot accept
// without waiting for it to land. A blocked Accept() call unblocks once the
// gateway's drain loop delivers the resulting completion, returning an error
// and marking the guard unarmed. Used to wake a worker's accept goroutine
// from the outside (Worker.Stop) without closing the listening descriptor.
func (s *Server) CancelAccept() {
	if s.acceptOp != nil && s.armed {
		s.gw.SubmitCancel(s.acceptOp)
	}
}

// Close cancels any outstanding accept and drains its cancellation
// completion before closing the listening descriptor (the guard destructor
// this is grounded on does not drain; this one does, see DESIGN.md).
func (s *Server) Close() error {
	if s.acceptOp != nil && s.armed {
		s.gw.SubmitCancel(s.acceptOp)
		// Drain until the accept Op itself reports the cancellation; any
		// further multishot completions racing in are discarded too, since
		// no one will ever call Accept again.
		for {
			c := s.acceptOp.Wait()
			if c.Flags&iouring.IORING_CQE_F_MORE == 0 {
				break
			}
		}
		s.acceptOp.Release()
		s.acceptOp = nil
		s.armed = false
	}
	return unix.Close(s.fd)
}
