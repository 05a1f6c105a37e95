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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestPool builds a Pool's accounting state without touching the kernel,
// since Register needs a real io_uring instance. Borrow/Return/Stats/
// FirstFree/Quiescent only ever touch p.arena and p.borrowed.
func newTestPool(n, size int) *Pool {
	return &Pool{
		arena:    make([]byte, n*size),
		size:     size,
		n:        n,
		borrowed: make([]uint64, (n+63)/64),
	}
}

func TestBorrowReturnRoundTrip(t *testing.T) {
	p := newTestPool(4, 16)
	assert.True(t, p.Quiescent())

	buf := p.Borrow(2, 10)
	assert.Len(t, buf, 10)
	assert.False(t, p.Quiescent())

	borrowed, free := p.Stats()
	assert.Equal(t, 1, borrowed)
	assert.Equal(t, 3, free)

	p.Return(2)
	assert.True(t, p.Quiescent())
}

func TestBorrowLengthClampedToSlotSize(t *testing.T) {
	p := newTestPool(2, 8)
	buf := p.Borrow(0, 100)
	assert.Len(t, buf, 8)
}

func TestDoubleBorrowPanics(t *testing.T) {
	p := newTestPool(2, 8)
	p.Borrow(0, 4)
	assert.Panics(t, func() { p.Borrow(0, 4) })
}

func TestReturnWithoutBorrowPanics(t *testing.T) {
	p := newTestPool(2, 8)
	assert.Panics(t, func() { p.Return(0) })
}

func TestBorrowOutOfRangePanics(t *testing.T) {
	p := newTestPool(2, 8)
	assert.Panics(t, func() { p.Borrow(5, 1) })
	assert.Panics(t, func() { p.Borrow(-1, 1) })
}

func TestFirstFreeFindsLowestFreeID(t *testing.T) {
	p := newTestPool(130, 8) // spans more than one 64-bit word
	p.Borrow(0, 1)
	p.Borrow(1, 1)

	id, ok := p.FirstFree()
	require.True(t, ok)
	assert.Equal(t, 2, id)

	for i := 2; i < 130; i++ {
		p.Borrow(i, 1)
	}
	_, ok = p.FirstFree()
	assert.False(t, ok, "every slot borrowed, nothing free")
}
