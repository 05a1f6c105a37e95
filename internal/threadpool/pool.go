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

// Package threadpool runs a fixed set of persistent, ring-owning workers,
// one goroutine each pinned with runtime.LockOSThread so its blocking
// io_uring_enter calls don't starve the rest of the Go scheduler.
//
// This is a deliberate generalization of concurrency/gopool.GoPool, which
// spins workers up and down around an ephemeral task queue. Here there is
// no scaling: N workers are started once and run until Stop, each handling
// its own accept loop and connections directly. What's kept from GoPool is
// its panic-recovery shape (recover() + debug.Stack(), loggable handler)
// and its vocabulary (Option, pool name) rather than its elastic sizing.
// Cross-worker dispatch (Schedule) reuses container/ring.Ring as a
// round-robin cursor the way GoPool's worker count does, generalized from
// "container of values" to "dispatch cursor over live workers".
package threadpool

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/ringloop/ringhttpd/container/ring"
	"github.com/ringloop/ringhttpd/internal/rlog"
)

// Worker is the subset of internal/worker.Worker the pool needs to drive.
type Worker interface {
	Run() error
	Stop()
	Submit(fn func())
}

// Pool owns n persistent workers and a round-robin cursor for Schedule.
type Pool struct {
	log     *rlog.Logger
	workers *ring.Ring[Worker]
	cursor  int
	mu      sync.Mutex // guards cursor

	wg sync.WaitGroup
}

// New starts n workers, each constructed by newWorker(i) for i in [0,n), on
// its own OS-thread-pinned goroutine.
func New(n int, newWorker func(i int) Worker, log *rlog.Logger) *Pool {
	workers := make([]Worker, n)
	for i := range workers {
		workers[i] = newWorker(i)
	}
	p := &Pool{log: log, workers: ring.NewFromSlice(workers)}
	for i, w := range workers {
		p.wg.Add(1)
		go p.runPinned(i, w)
	}
	return p
}

func (p *Pool) runPinned(id int, w Worker) {
	defer p.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("threadpool: worker %d panicked: %v\n%s", id, r, debug.Stack())
		}
	}()
	if err := w.Run(); err != nil {
		p.log.Errorf("threadpool: worker %d exited: %v", id, err)
	}
}

// Schedule hands fn to the next worker in round-robin order. fn runs inline
// on that worker's event-loop goroutine and must not block.
func (p *Pool) Schedule(fn func()) {
	p.mu.Lock()
	item, _ := p.workers.Get(p.cursor)
	p.cursor = (p.cursor + 1) % p.workers.Len()
	p.mu.Unlock()
	item.Value().Submit(fn)
}

// Stop signals every worker to wind down and blocks until all have exited.
func (p *Pool) Stop() {
	p.workers.Do(func(w *Worker) {
		(*w).Stop()
	})
	p.wg.Wait()
}
