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

// Package bufpool implements the provided-buffer ring: N fixed-size buffers
// registered with the kernel so a recv can let the kernel pick one instead
// of the caller supplying an address up front.
//
// The free/borrowed bitset is a single bit per buffer, scanned word-by-word
// with bits.TrailingZeros64 to skip fully-borrowed words in one step instead
// of testing a bit at a time — there are no multi-block runs to find since
// every provided buffer here is the same fixed size.
//
// A Pool is NOT safe for concurrent use. Exactly one worker goroutine owns
// each instance.
package bufpool

import (
	"fmt"
	"math/bits"

	"golang.org/x/sys/unix"

	"github.com/ringloop/ringhttpd/internal/iouring"
)

// MaxRingSize bounds the provided-buffer ring cardinality (must be a power
// of two, per the io_uring_buf_ring ABI).
const MaxRingSize = 4096

// Pool is a registered ring of n buffers of size bytes each, backed by one
// mmap'd arena so the whole ring can be handed to the kernel in one
// IORING_REGISTER_PBUF_RING call.
type Pool struct {
	arena    []byte
	size     int
	n        int
	bgid     uint16
	borrowed []uint64 // bitset, 1 = borrowed by a coroutine, 0 = kernel-owned
	bufRing  []byte   // mmap'd io_uring_buf ring shared with the kernel
	ring     *iouring.IoUring
}

// Register allocates n buffers of size bytes and registers them with ring
// under buffer group id bgid, exposing every slot to the kernel as available.
func Register(ring *iouring.IoUring, bgid uint16, n, size int) (*Pool, error) {
	if n <= 0 || n > MaxRingSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("bufpool: ring size %d must be a power of two <= %d", n, MaxRingSize)
	}
	arena, err := unix.Mmap(-1, 0, n*size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("bufpool: mmap arena: %w", err)
	}
	bufRingBytes := (n + 1) * 16 // n real entries plus one sentinel tail slot
	bufRing, err := unix.Mmap(-1, 0, bufRingBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		unix.Munmap(arena)
		return nil, fmt.Errorf("bufpool: mmap buf ring: %w", err)
	}

	p := &Pool{
		arena:    arena,
		size:     size,
		n:        n,
		bgid:     bgid,
		borrowed: make([]uint64, (n+63)/64),
		bufRing:  bufRing,
		ring:     ring,
	}
	for id := 0; id < n; id++ {
		p.publish(id)
	}
	p.setTail(uint16(n))

	reg := iouring.IoUringBufReg{
		RingAddr:    uint64(uintptrOf(bufRing)),
		RingEntries: uint32(n),
		Bgid:        bgid,
	}
	if err := ring.Register(iouring.IORING_REGISTER_PBUF_RING, ptrOf(&reg), 1); err != nil {
		unix.Munmap(arena)
		unix.Munmap(bufRing)
		return nil, fmt.Errorf("bufpool: register pbuf ring: %w", err)
	}
	return p, nil
}

// GroupID returns the buffer group id this pool was registered under.
func (p *Pool) GroupID() uint16 { return p.bgid }

// Borrow records that buffer id is borrowed and returns a view of its first
// length bytes. id must be < N and currently kernel-owned; violating either
// is a programming error and panics rather than returning an error.
func (p *Pool) Borrow(id int, length int) []byte {
	if id < 0 || id >= p.n {
		panic(fmt.Sprintf("bufpool: id %d out of range [0,%d)", id, p.n))
	}
	word, bit := id/64, uint(id%64)
	if p.borrowed[word]&(1<<bit) != 0 {
		panic(fmt.Sprintf("bufpool: double-borrow of buffer %d", id))
	}
	p.borrowed[word] |= 1 << bit
	if length > p.size {
		length = p.size
	}
	start := id * p.size
	return p.arena[start : start+length]
}

// Return marks id available again and re-exposes it to the kernel so a
// subsequent receive may select it.
func (p *Pool) Return(id int) {
	if id < 0 || id >= p.n {
		panic(fmt.Sprintf("bufpool: id %d out of range [0,%d)", id, p.n))
	}
	word, bit := id/64, uint(id%64)
	if p.borrowed[word]&(1<<bit) == 0 {
		panic(fmt.Sprintf("bufpool: return of buffer %d that was not borrowed", id))
	}
	p.borrowed[word] &^= 1 << bit
	p.publish(id)
	p.advanceTail()
}

// FirstFree scans the borrowed bitset for the lowest-numbered free buffer,
// word by word with bits.TrailingZeros64 to skip fully-borrowed words.
// Borrow itself never needs this — the kernel already names the buffer id
// in a recv completion — and no other code in this module calls it; it is
// exported for diagnostics.
func (p *Pool) FirstFree() (id int, ok bool) {
	for w, word := range p.borrowed {
		if word == ^uint64(0) {
			continue
		}
		bit := bits.TrailingZeros64(^word)
		id = w*64 + bit
		if id >= p.n {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// Stats reports how many of the N buffers are currently borrowed vs free.
func (p *Pool) Stats() (borrowedCount, free int) {
	for _, w := range p.borrowed {
		borrowedCount += bits.OnesCount64(w)
	}
	return borrowedCount, p.n - borrowedCount
}

// Quiescent reports whether the borrowed bitset is all-zero: every buffer
// back with the kernel and no handler mid-flight.
func (p *Pool) Quiescent() bool {
	for _, w := range p.borrowed {
		if w != 0 {
			return false
		}
	}
	return true
}

// Close releases the arena and ring mmaps. Callers must unregister the
// buffer group from the kernel ring before calling Close.
func (p *Pool) Close() error {
	err1 := unix.Munmap(p.arena)
	err2 := unix.Munmap(p.bufRing)
	if err1 != nil {
		return err1
	}
	return err2
}
