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

// Package ringhttpd assembles the worker pool, error types, and metrics
// into a single process entry point. Build with GOOS=linux; every socket
// and ring primitive it wires in requires io_uring.
package ringhttpd

import (
	"github.com/ringloop/ringhttpd/internal/config"
	"github.com/ringloop/ringhttpd/internal/rlog"
	"github.com/ringloop/ringhttpd/internal/threadpool"
	"github.com/ringloop/ringhttpd/internal/worker"
	"github.com/ringloop/ringhttpd/ringmetrics"
)

// Server owns the thread pool of ring-driven workers bound to one port
// under SO_REUSEPORT.
type Server struct {
	cfg      config.Config
	fileRoot string
	log      *rlog.Logger
	metrics  *ringmetrics.Metrics
	pool     *threadpool.Pool

	ready chan struct{} // closed once ListenAndServe has built the pool
	done  chan struct{} // closed once Stop has drained every worker
}

// New validates cfg and prepares a Server; ListenAndServe does the binding.
// fileRoot is the directory ServeFile requests under httpmsg.FilesPrefix
// are resolved against; an empty string defaults to the working directory.
func New(cfg config.Config, fileRoot string, log *rlog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = rlog.Default()
	}
	if fileRoot == "" {
		fileRoot = "."
	}
	return &Server{
		cfg: cfg, fileRoot: fileRoot, log: log, metrics: ringmetrics.New(),
		ready: make(chan struct{}), done: make(chan struct{}),
	}, nil
}

// Metrics returns the server's counters, safe to read concurrently while
// ListenAndServe is running.
func (s *Server) Metrics() *ringmetrics.Metrics { return s.metrics }

// ListenAndServe starts cfg.Workers ring-owning workers, all bound to
// cfg.Port under SO_REUSEPORT, and blocks until Stop is called and every
// worker has finished draining.
func (s *Server) ListenAndServe() {
	s.pool = threadpool.New(s.cfg.Workers, func(i int) threadpool.Worker {
		return worker.New(i, s.cfg, s.fileRoot, s.metrics, s.log)
	}, s.log)
	close(s.ready)
	<-s.done
}

// Stop tells every worker to stop accepting and blocks until all have
// drained their residual completions and exited. Safe to call from a
// different goroutine than ListenAndServe (e.g. a signal handler).
func (s *Server) Stop() {
	<-s.ready
	s.pool.Stop()
	close(s.done)
}
