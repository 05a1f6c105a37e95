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

package bufpool

import "unsafe"

// bufRingEntry is struct io_uring_buf's Go shape (see
// internal/iouring.IoUringBuf), declared here with unexported fields for
// the code that writes the ring.
type bufRingEntry struct {
	addr uint64
	len  uint32
	bid  uint16
	resv uint16
}

// entries views the first n entry slots of the mmap'd ring, one per buffer
// id. The tail counter is not among them: it is kept in the sentinel slot
// at index n (see tailPtr).
func (p *Pool) entries() []bufRingEntry {
	return unsafe.Slice((*bufRingEntry)(unsafe.Pointer(&p.bufRing[0])), p.n)
}

func (p *Pool) publish(id int) {
	e := p.entries()
	e[id] = bufRingEntry{
		addr: uint64(uintptrOf(p.arena[id*p.size : id*p.size+p.size])),
		len:  uint32(p.size),
		bid:  uint16(id),
	}
}

// setTail and advanceTail maintain the ring's producer index. liburing
// stores this as a uint16 at a kernel-chosen offset past the entries array;
// this package reserves one extra entry slot at index n for it, sized the
// same as a bufRingEntry so the arithmetic stays entry-sized.
func (p *Pool) tailPtr() *uint16 {
	// The tail lives in the `resv` field of a sentinel entry the kernel
	// places immediately after the last real entry when the ring was
	// registered with RingEntries == n; liburing calls this io_uring_buf_ring.tail.
	return (*uint16)(unsafe.Pointer(&p.bufRing[p.n*16+14]))
}

func (p *Pool) setTail(v uint16)    { *p.tailPtr() = v }
func (p *Pool) advanceTail()        { *p.tailPtr()++ }

func uintptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func ptrOf[T any](v *T) unsafe.Pointer {
	return unsafe.Pointer(v)
}
