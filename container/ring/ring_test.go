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

package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBasic(t *testing.T) {
	r := NewFromSlice([]int{1, 2, 3})
	require.Equal(t, 3, r.Len())

	head := r.Head()
	require.NotNil(t, head)
	assert.Equal(t, 1, head.Value())
	assert.Equal(t, 0, head.Index())
}

func TestRingNextWraps(t *testing.T) {
	r := NewFromSlice([]int{10, 20, 30})

	next, ok := r.Next(2)
	require.True(t, ok)
	assert.Equal(t, 10, next.Value(), "Next from the last item wraps to the first")

	next, ok = r.Next(0)
	require.True(t, ok)
	assert.Equal(t, 20, next.Value())
}

func TestRingPrevWraps(t *testing.T) {
	r := NewFromSlice([]int{10, 20, 30})

	prev, ok := r.Prev(0)
	require.True(t, ok)
	assert.Equal(t, 30, prev.Value(), "Prev from the first item wraps to the last")
}

func TestRingMove(t *testing.T) {
	r := NewFromSlice([]int{1, 2, 3, 4})

	item, ok := r.Move(0, 2)
	require.True(t, ok)
	assert.Equal(t, 3, item.Value())

	item, ok = r.Move(1, -1)
	require.True(t, ok)
	assert.Equal(t, 1, item.Value())
}

func TestRingOutOfRange(t *testing.T) {
	r := NewFromSlice([]int{1, 2, 3})

	_, ok := r.Get(3)
	assert.False(t, ok)
	_, ok = r.Get(-1)
	assert.False(t, ok)
}

func TestRingDo(t *testing.T) {
	r := NewFromSlice([]int{1, 2, 3})
	sum := 0
	r.Do(func(v *int) { sum += *v })
	assert.Equal(t, 6, sum)
}

func TestRingPointerMutatesInPlace(t *testing.T) {
	r := NewFromSlice([]int{1, 2, 3})
	item, ok := r.Get(1)
	require.True(t, ok)
	*item.Pointer() = 99

	item2, _ := r.Get(1)
	assert.Equal(t, 99, item2.Value())
}

func TestRingEmpty(t *testing.T) {
	r := NewFromSlice[int](nil)
	assert.Nil(t, r.Head())
	assert.Equal(t, 0, r.Len())
}
