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

// Package gateway owns one SQ/CQ ring per worker and exposes the submit/drain
// surface spec'd for the ring gateway component: multishot accept, a
// provided-buffer recv, a plain send, splice, and cancel, plus the
// submit-and-wait/drain-completions pair that drives a worker's event loop.
//
// A Gateway is not safe for concurrent use. Each worker goroutine owns
// exactly one instance; there is no package-level singleton, since the
// "process-wide accessor" the design started from is really thread-local
// state once it's generalized to multiple worker threads.
package gateway

import (
	"fmt"
	"unsafe"

	"github.com/ringloop/ringhttpd/internal/iouring"
)

// Gateway wraps one io_uring instance for a single worker.
type Gateway struct {
	ring *iouring.IoUring
}

// New creates a ring with room for queueSize submissions/completions.
func New(queueSize uint32) (*Gateway, error) {
	ring, err := iouring.NewIoUring(queueSize)
	if err != nil {
		return nil, fmt.Errorf("gateway: ring setup: %w", err)
	}
	return &Gateway{ring: ring}, nil
}

// Close releases the ring. Callers must have drained all outstanding
// completions (including cancellations) before calling Close.
func (g *Gateway) Close() error {
	return g.ring.Close()
}

// Ring returns the underlying io_uring handle so a worker can register a
// provided-buffer ring against the same instance it submits SQEs on.
// bufpool.Register is the only intended caller.
func (g *Gateway) Ring() *iouring.IoUring {
	return g.ring
}

func (g *Gateway) peekAndAdvance(op *Op) {
	sqe := g.ring.PeekSQE(false)
	for sqe == nil {
		// Submission queue full: force a submit to make room before
		// retrying, rather than growing the queue or dropping the op.
		g.ring.Submit()
		sqe = g.ring.PeekSQE(false)
	}
	*sqe = op.sqe
	g.ring.AdvanceSQ()
}

// SubmitMultishotAccept submits a persistent accept on fd. Every accepted
// connection produces a completion tagged with op until op is cancelled.
func (g *Gateway) SubmitMultishotAccept(op *Op, fd int) {
	op.multishot = true
	op.sqe.Opcode = iouring.IORING_OP_ACCEPT
	op.sqe.Fd = int32(fd)
	op.sqe.OpcodeFlags = iouring.IORING_ACCEPT_MULTISHOT
	g.peekAndAdvance(op)
}

// SubmitRecv submits a provided-buffer receive: the kernel selects a buffer
// from bufGroup and writes up to length bytes into it.
func (g *Gateway) SubmitRecv(op *Op, fd int, bufGroup uint16, length int) {
	op.sqe.Opcode = iouring.IORING_OP_RECV
	op.sqe.Fd = int32(fd)
	op.sqe.Addr = 0
	op.sqe.Len = uint32(length)
	op.sqe.BufIndex = bufGroup
	op.sqe.Flags = iouring.IOSQE_BUFFER_SELECT
	g.peekAndAdvance(op)
}

// SubmitSend submits a send of buf (all of it, in one SQE — partial delivery
// is handled by the caller resubmitting the remaining span, matching
// original_source's client_socket::send loop).
func (g *Gateway) SubmitSend(op *Op, fd int, buf []byte) {
	op.sqe.Opcode = iouring.IORING_OP_SEND
	op.sqe.Fd = int32(fd)
	op.sqe.Len = uint32(len(buf))
	if len(buf) > 0 {
		op.sqe.Addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
	} else {
		op.sqe.Addr = 0
	}
	g.peekAndAdvance(op)
}

// SubmitSplice moves up to length bytes from fdIn to fdOut; one side must be
// a pipe. Offsets of -1 mean "use the file's current position".
func (g *Gateway) SubmitSplice(op *Op, fdIn, fdOut int, length int) {
	op.sqe.Opcode = iouring.IORING_OP_SPLICE
	op.sqe.Fd = int32(fdOut)
	op.sqe.SpliceFdIn = int32(fdIn)
	op.sqe.Len = uint32(length)
	op.sqe.Off = ^uint64(0)  // splice_off_out = -1: write at fdOut's current offset
	op.sqe.Addr = ^uint64(0) // splice_off_in (shares the Addr slot) = -1: read at fdIn's current offset
	g.peekAndAdvance(op)
}

// SubmitCancel cancels any in-flight operation tagged with target.
func (g *Gateway) SubmitCancel(target *Op) {
	cancel := NewOp()
	cancel.sqe.Opcode = iouring.IORING_OP_ASYNC_CANCEL
	cancel.sqe.Addr = uint64(uintptr(unsafe.Pointer(target)))
	g.peekAndAdvance(cancel)
	// The cancel op itself is fire-and-forget from the caller's perspective;
	// its own completion is drained and discarded by DrainCompletions like
	// any other, then released back to the pool.
	cancel.transient = true
}

// SubmitAndWait pushes all pending submissions and blocks until at least n
// completions are available.
func (g *Gateway) SubmitAndWait(n int) error {
	if _, errno := g.ring.Submit(); errno != 0 {
		return fmt.Errorf("gateway: submit: %w", errno)
	}
	for i := 0; i < n; i++ {
		if _, err := g.ring.WaitCQE(); err != nil {
			return fmt.Errorf("gateway: wait: %w", err)
		}
	}
	return nil
}

// DrainCompletions iterates every completion currently available without
// blocking, delivering each to the goroutine blocked in the tagged Op's
// Wait(). Multishot completions that lack IORING_CQE_F_MORE are re-armed by
// the accept awaiter, not here. fn is an optional observer hook (metrics,
// logging) called after delivery; pass nil if nothing needs to observe raw
// completions.
func (g *Gateway) DrainCompletions(fn func(op *Op, res int32, flags uint32)) {
	for {
		cqe := g.ring.PeekCQE()
		if cqe == nil {
			return
		}
		res, flags, userData := cqe.Res, cqe.Flags, cqe.UserData
		g.ring.AdvanceCQ()

		if userData == 0 {
			continue
		}
		op := opFromUserData(userData)
		if !op.valid() {
			continue
		}
		op.sendResult(Completion{Res: res, Flags: flags})
		if fn != nil {
			fn(op, res, flags)
		}
		if op.transient {
			op.Release()
		}
	}
}
