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

package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnAwaitReturnsResult(t *testing.T) {
	tk := Spawn(func() int { return 42 })
	assert.Equal(t, 42, tk.Await())
	assert.True(t, tk.Done())
}

func TestDoneFalseBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	tk := Spawn(func() int {
		<-release
		return 1
	})
	assert.False(t, tk.Done())
	close(release)
	require.Equal(t, 1, tk.Await())
	assert.True(t, tk.Done())
}

func TestDetachSwallowsPanic(t *testing.T) {
	tk := Spawn(func() int { panic("boom") })
	tk.Detach()
	// A detached task's panic must not crash the test process; give the
	// goroutine time to run and recover.
	time.Sleep(10 * time.Millisecond)
	assert.True(t, tk.Done())
}

func TestMultipleTasksRunConcurrently(t *testing.T) {
	const n = 20
	tasks := make([]*Task[int], n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = Spawn(func() int { return i * i })
	}
	for i, tk := range tasks {
		assert.Equal(t, i*i, tk.Await())
	}
}
