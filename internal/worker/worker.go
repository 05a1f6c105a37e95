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

// Package worker runs one event loop per thread-pool slot: its own ring
// (internal/gateway), its own provided-buffer pool (internal/bufpool), and
// its own listening socket bound under SO_REUSEPORT (internal/sock).
// Submitting and draining run on one goroutine: there is nothing else
// contending for this ring, so a single goroutine can own both.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ringloop/ringhttpd/concurrency/gopool"
	"github.com/ringloop/ringhttpd/internal/bufpool"
	"github.com/ringloop/ringhttpd/internal/config"
	"github.com/ringloop/ringhttpd/internal/gateway"
	"github.com/ringloop/ringhttpd/internal/httpmsg"
	"github.com/ringloop/ringhttpd/internal/rlog"
	"github.com/ringloop/ringhttpd/internal/sock"
	"github.com/ringloop/ringhttpd/internal/task"
	"github.com/ringloop/ringhttpd/ringerr"
	"github.com/ringloop/ringhttpd/ringmetrics"
)

// bufGroupID is fixed since each worker registers exactly one provided-buffer
// pool for the lifetime of the process.
const bufGroupID uint16 = 1

// Worker owns one ring, one buffer pool, and one listening socket. Not safe
// for concurrent use from outside its own Run goroutine and the connection
// goroutines it spawns, which only ever touch the ring via Wait/channel.
type Worker struct {
	id      int
	cfg     config.Config
	fileRoot string
	metrics *ringmetrics.Metrics
	log     *rlog.Logger

	gw   *gateway.Gateway
	pool *bufpool.Pool
	srv  *sock.Server

	stop      chan struct{}
	tasks     chan func()
	accessLog *gopool.GoPool
}

// New constructs a Worker without starting its event loop; call Run to do so.
func New(id int, cfg config.Config, fileRoot string, metrics *ringmetrics.Metrics, log *rlog.Logger) *Worker {
	w := &Worker{
		id: id, cfg: cfg, fileRoot: fileRoot, metrics: metrics, log: log,
		stop:  make(chan struct{}),
		tasks: make(chan func(), 64),
	}
	w.accessLog = gopool.NewGoPool(fmt.Sprintf("worker-%d-access-log", id), &gopool.Option{
		MaxIdleWorkers: 4,
		WorkerMaxAge:   30 * time.Second,
		TaskChanBuffer: 256,
	})
	w.accessLog.SetPanicHandler(func(_ context.Context, r interface{}) {
		w.log.Errorf("worker %d: access log task panicked: %v", w.id, r)
	})
	return w
}

// Submit queues fn to run on this worker's own goroutine between event-loop
// iterations, the cross-worker dispatch surface internal/threadpool.Schedule
// uses. fn must not block: it runs inline in the drain loop.
func (w *Worker) Submit(fn func()) {
	select {
	case w.tasks <- fn:
	case <-w.stop:
	}
}

// Run binds the listening socket, registers the buffer pool, spawns the
// detached accept loop, and then drives the ring until Stop is called.
// Run blocks until the ring has been fully drained and torn down.
func (w *Worker) Run() error {
	gw, err := gateway.New(w.cfg.RingQueueSize)
	if err != nil {
		return ringerr.Wrap("worker.Run", ringerr.KindSetupFatal, err)
	}
	w.gw = gw

	pool, err := bufpool.Register(gw.Ring(), bufGroupID, w.cfg.MaxBufferRingSize, w.cfg.MaxBufferSize)
	if err != nil {
		gw.Close()
		return ringerr.Wrap("worker.Run", ringerr.KindSetupFatal, err)
	}
	w.pool = pool

	srv, err := sock.NewServer(gw, w.cfg.Port, w.cfg.SocketListenQueueSize)
	if err != nil {
		pool.Close()
		gw.Close()
		return ringerr.Wrap("worker.Run", ringerr.KindSetupFatal, err)
	}
	w.srv = srv

	accept := task.Spawn(func() struct{} {
		w.acceptLoop()
		return struct{}{}
	})
	accept.Detach()

	w.drainLoop()

	srv.Close()
	pool.Close()
	gw.Close()
	return nil
}

// Stop requests the worker's event loop and accept loop to wind down.
// Cancelling the outstanding accept wakes the blocked acceptLoop goroutine
// and produces a completion that wakes the drain loop's SubmitAndWait(1).
// Residual completions are drained before the ring closes.
func (w *Worker) Stop() {
	close(w.stop)
	w.srv.CancelAccept()
}

func (w *Worker) acceptLoop() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}
		fd, err := w.srv.Accept()
		if err != nil {
			if ringerr.IsKind(err, ringerr.KindIOTransient) {
				// Cancellation during Stop surfaces here too; exit quietly.
				return
			}
			w.log.Errorf("worker %d: accept: %v", w.id, err)
			continue
		}
		w.metrics.ConnectionsAccepted.Add(1)
		conn := sock.NewConn(w.gw, fd)
		ct := task.Spawn(func() struct{} {
			w.handleClient(conn)
			return struct{}{}
		})
		ct.Detach()
	}
}

// drainLoop is the worker's own event loop: submit pending SQEs, block for
// at least one completion, then drain everything currently available,
// resuming whichever goroutine's Op each completion is tagged with.
func (w *Worker) drainLoop() {
	for {
		select {
		case <-w.stop:
			w.gw.DrainCompletions(nil)
			return
		default:
		}
		w.drainTasks()
		if err := w.gw.SubmitAndWait(1); err != nil {
			w.log.Errorf("worker %d: submit/wait: %v", w.id, err)
			return
		}
		w.gw.DrainCompletions(nil)
		w.drainTasks()
	}
}

// drainTasks runs every Submit-ed callback currently queued, without
// blocking if none are pending.
func (w *Worker) drainTasks() {
	for {
		select {
		case fn := <-w.tasks:
			fn()
		default:
			return
		}
	}
}

// handleClient is the per-connection coroutine: recv/parse/respond,
// returning each provided buffer immediately after the parser has copied
// out of it, looping while the connection stays keep-alive.
func (w *Worker) handleClient(conn *sock.Conn) {
	defer func() {
		conn.Close()
		w.metrics.ConnectionsClosed.Add(1)
	}()

	parser := httpmsg.NewParser()
	for {
		bufID, n, err := conn.Recv(bufGroupID, w.cfg.MaxBufferSize)
		if err != nil {
			return
		}
		if n == 0 {
			return // peer closed
		}
		w.metrics.BytesRecv.Add(uint64(n))

		data := w.pool.Borrow(bufID, n)
		req, parseErr, ok := parser.FeedErr(data)
		w.pool.Return(bufID)
		if parseErr != nil {
			w.metrics.RequestErrors.Add(1)
			resp := httpmsg.NewResponse(400, "Bad Request", []byte("bad request\n"))
			resp.SetKeepAlive(false)
			conn.Send(resp.AppendTo(nil))
			return
		}
		if !ok {
			continue // need more bytes before a full request is available
		}

		keepAlive := req.KeepAlive()
		w.serve(conn, req, keepAlive)
		if !keepAlive {
			return
		}
	}
}

func (w *Worker) serve(conn *sock.Conn, req *httpmsg.Request, keepAlive bool) {
	// req.Method/req.Path alias the parser's accumulation buffer and become
	// invalid the moment the next Feed call runs, so the access-log task
	// (queued to run after this function returns, possibly after the next
	// recv) gets its own copies rather than the zero-copy views.
	method, path := strings.Clone(req.Method), strings.Clone(req.Path)

	if strings.HasPrefix(path, httpmsg.FilesPrefix) {
		name := strings.TrimPrefix(path, httpmsg.FilesPrefix)
		if err := httpmsg.ServeFile(w.gw, conn, w.fileRoot, name, keepAlive); err != nil {
			w.metrics.RequestErrors.Add(1)
			w.log.Errorf("worker %d: ServeFile: %v", w.id, err)
			return
		}
		w.metrics.RequestsServed.Add(1)
		w.logAccess(method, path, 200, keepAlive)
		return
	}

	resp := httpmsg.NewResponse(200, "OK", []byte("ok\n"))
	resp.SetKeepAlive(keepAlive)
	out := resp.AppendTo(nil)
	n, err := conn.Send(out)
	if err != nil {
		w.metrics.RequestErrors.Add(1)
		return
	}
	w.metrics.BytesSent.Add(uint64(n))
	w.metrics.RequestsServed.Add(1)
	w.logAccess(method, path, 200, keepAlive)
}

// logAccess dispatches a fire-and-forget log line through the worker's
// gopool.GoPool so a slow io.Writer on the log's Output never stalls the
// event-loop goroutine; a panicking handler is caught and reported by the
// pool's own panic handler instead of taking the worker down.
func (w *Worker) logAccess(method, path string, status int, keepAlive bool) {
	w.accessLog.Go(func() {
		w.log.Infof("worker %d: %s %s -> %d keepalive=%v", w.id, method, path, status, keepAlive)
	})
}
