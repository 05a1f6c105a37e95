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

package sock

import (
	"golang.org/x/sys/unix"

	"github.com/ringloop/ringhttpd/internal/gateway"
	"github.com/ringloop/ringhttpd/internal/iouring"
)

// Conn wraps an accepted descriptor. Must not be driven by two goroutines
// concurrently — internal/worker enforces this by giving each connection
// exactly one handler goroutine.
type Conn struct {
	fd int
	gw *gateway.Gateway
}

// NewConn wraps an already-accepted descriptor.
func NewConn(gw *gateway.Gateway, fd int) *Conn {
	return &Conn{fd: fd, gw: gw}
}

// Fd returns the raw connection descriptor.
func (c *Conn) Fd() int { return c.fd }

// Close closes the underlying descriptor.
func (c *Conn) Close() error { return unix.Close(c.fd) }

// Recv submits a provided-buffer receive from bufGroup and returns the
// selected buffer's id and the byte count. byte_count == 0 means the peer
// closed; negative means an error.
func (c *Conn) Recv(bufGroup uint16, length int) (bufID int, n int, err error) {
	op := gateway.NewOp()
	c.gw.SubmitRecv(op, c.fd, bufGroup, length)
	comp := op.Wait()
	op.Release()

	if comp.Res < 0 {
		return 0, int(comp.Res), gateway.ErrnoFromRes(comp.Res)
	}
	// AND against IORING_CQE_F_BUFFER, not the source's buggy bitwise OR.
	id, ok := iouring.BufferSelectedID(comp.Flags)
	if !ok {
		return 0, int(comp.Res), nil
	}
	return int(id), int(comp.Res), nil
}

// Send loops a single-send submission until length bytes have been written
// or a negative result occurs, advancing the slice by bytes already sent —
// grounded on original_source's client_socket::send.
func (c *Conn) Send(buf []byte) (int, error) {
	sent := 0
	for sent < len(buf) {
		op := gateway.NewOp()
		c.gw.SubmitSend(op, c.fd, buf[sent:])
		comp := op.Wait()
		op.Release()
		if comp.Res < 0 {
			return -1, gateway.ErrnoFromRes(comp.Res)
		}
		sent += int(comp.Res)
	}
	return sent, nil
}
