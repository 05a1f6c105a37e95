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

package gateway

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/ringloop/ringhttpd/internal/iouring"
)

// opMagic guards against a completion arriving for an Op that has already
// been returned to the pool and reused by an unrelated submission.
const opMagic = 0x524F4F5031 // "ROOP1"

// Completion is one drained completion queue entry, stripped of the raw
// iouring types so callers outside this package never see kernel ABI shapes.
type Completion struct {
	Res   int32
	Flags uint32
}

// Op is this repo's IoOp: a heap-stable record identifying one in-flight
// submission. Its address is written into the SQE's UserData field, so a
// completion can be routed back to the waiting goroutine without a side
// table.
//
// Unlike a coroutine-handle pointer, resumption here is a buffered channel
// send/receive: the goroutine that owns an Op blocks in Wait() until the
// worker's drain loop calls sendResult.
type Op struct {
	magic     uint64
	notify    chan Completion
	sqe       iouring.IOUringSQE
	multishot bool
	transient bool // released automatically after its one completion drains
}

var opPool = sync.Pool{
	New: func() any {
		return &Op{notify: make(chan Completion, 1)}
	},
}

// NewOp returns a freshly tagged Op ready for one submission.
func NewOp() *Op {
	op := opPool.Get().(*Op)
	op.magic = opMagic
	op.multishot = false
	op.transient = false
	op.sqe = iouring.IOUringSQE{}
	op.sqe.UserData = uint64(uintptr(unsafe.Pointer(op)))
	// Drain any stale completion left by a previous user of this pooled Op.
	select {
	case <-op.notify:
	default:
	}
	return op
}

// Release returns the Op to the pool. Callers must not touch it afterward.
// Multishot ops (server accept) are never released while still armed; the
// owner releases only after submitting and draining a cancel.
func (op *Op) Release() {
	op.magic = 0
	opPool.Put(op)
}

func (op *Op) valid() bool { return op.magic == opMagic }

// Wait blocks until the worker's drain loop delivers a completion for this Op.
func (op *Op) Wait() Completion {
	return <-op.notify
}

// sendResult is called from the worker's own goroutine inside DrainCompletions;
// the channel is buffered by one so it never blocks the drain loop even if the
// waiting goroutine has not yet called Wait.
func (op *Op) sendResult(c Completion) {
	select {
	case op.notify <- c:
	default:
		// A previous completion for a multishot op was never consumed
		// (the awaiter re-arms before waiting again); drop it and
		// replace with the newest one instead of blocking the drain loop.
		select {
		case <-op.notify:
		default:
		}
		op.notify <- c
	}
}

func opFromUserData(ud uint64) *Op {
	return (*Op)(unsafe.Pointer(uintptr(ud)))
}

// ErrnoFromRes converts a negative completion result (as io_uring reports
// kernel errors: res == -errno) into a syscall.Errno. Callers must only
// call this when res < 0.
func ErrnoFromRes(res int32) syscall.Errno {
	return syscall.Errno(-res)
}
