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

package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ringloop/ringhttpd/internal/config"
	"github.com/ringloop/ringhttpd/internal/rlog"
	"github.com/ringloop/ringhttpd/ringmetrics"
)

// newTestWorker builds a Worker whose Submit/drainTasks plumbing can be
// exercised without a real io_uring ring (gw/pool/srv stay nil, untouched
// by either method).
func newTestWorker() *Worker {
	return New(0, config.DefaultConfig(), "", ringmetrics.New(), rlog.Default())
}

func TestSubmitQueuesAndDrainTasksRunsThem(t *testing.T) {
	w := newTestWorker()

	var ran []int
	for i := 0; i < 3; i++ {
		i := i
		w.Submit(func() { ran = append(ran, i) })
	}
	w.drainTasks()

	assert.Equal(t, []int{0, 1, 2}, ran)
}

func TestDrainTasksReturnsImmediatelyWhenEmpty(t *testing.T) {
	w := newTestWorker()
	done := make(chan struct{})
	go func() {
		w.drainTasks()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("drainTasks blocked with no queued work")
	}
}

func TestSubmitUnblocksOnStopInsteadOfBlockingForever(t *testing.T) {
	w := newTestWorker()
	for i := 0; i < cap(w.tasks); i++ {
		w.Submit(func() {})
	}
	close(w.stop)

	done := make(chan struct{})
	go func() {
		w.Submit(func() {}) // tasks channel is full; must fall through via stop
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked past worker stop")
	}
}
