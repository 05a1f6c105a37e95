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

// Package task is the Go rendition of a coroutine/promise runtime: a
// goroutine-per-task future, coordinated through a result channel instead of
// a suspended coroutine frame.
//
// The channel-publish shape is the same one internal/gateway.Op uses for a
// single completion (sendResult/Wait); Task generalizes it to an
// arbitrary result type and to a spawn/await/detach vocabulary. It also
// borrows its publish-once discipline from the other_examples
// Izzette-go-safeconcurrency workpool task wrapper, collapsed here to a
// single buffered channel since a Task publishes exactly one value.
package task

import (
	"sync"
	"sync/atomic"

	"github.com/ringloop/ringhttpd/internal/rlog"
)

// Task owns one goroutine computing a value of type T. A freshly spawned
// Task's goroutine starts running immediately (Go has no separate
// "initial-suspended" state to model — the nearest honest equivalent of a
// coroutine that does not run until resumed is that the result is not
// observable until Await returns).
type Task[T any] struct {
	result   chan T
	once     sync.Once
	done     atomic.Bool
	detached atomic.Bool
}

// Spawn starts fn on a new goroutine and returns a Task publishing its
// result. A panic inside fn is recovered and, for a detached task, only
// logged: an unhandled exception in the original coroutine runtime is fatal
// to the process, but a single per-connection goroutine panicking must not
// take down unrelated connections' in-flight I/O on the same worker.
// A panic in a task that is not detached is re-raised on the task's own
// goroutine, which ends the process; Await does not observe it.
func Spawn[T any](fn func() T) *Task[T] {
	t := &Task[T]{result: make(chan T, 1)}
	go func() {
		var zero T
		defer func() {
			if r := recover(); r != nil {
				if t.detached.Load() {
					rlog.Default().Errorf("task: detached task panicked: %v", r)
					t.publish(zero)
					return
				}
				// Publish the zero value, then re-panic here on the task's
				// own goroutine; Go cannot transplant a panic across
				// goroutines, so this ends the process.
				t.publish(zero)
				panic(r)
			}
		}()
		t.publish(fn())
	}()
	return t
}

func (t *Task[T]) publish(v T) {
	t.once.Do(func() {
		t.result <- v
		t.done.Store(true)
	})
}

// Await blocks until the task completes and returns its result. A Task must
// not be awaited from more than one goroutine concurrently (the same
// single-awaiter rule this server applies to sockets, applied here to tasks).
func (t *Task[T]) Await() T {
	return <-t.result
}

// Done reports whether the task has published its result.
func (t *Task[T]) Done() bool { return t.done.Load() }

// Detach marks the task as spawned-and-forgotten: nothing will call Await,
// so a panic inside fn is swallowed (after logging) instead of re-raised
// into the void. Used for the root accept task and every per-connection
// handler task.
func (t *Task[T]) Detach() {
	t.detached.Store(true)
}
