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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	ringhttpd "github.com/ringloop/ringhttpd"
	"github.com/ringloop/ringhttpd/internal/config"
	"github.com/ringloop/ringhttpd/internal/rlog"
)

func main() {
	var (
		port     = flag.Int("port", 8080, "listening port")
		workers  = flag.Int("workers", runtime.GOMAXPROCS(0), "number of ring-owning worker threads")
		fileRoot = flag.String("files", ".", "directory served under /files/")
		verbose  = flag.Bool("v", false, "verbose (debug-level) logging")
	)
	flag.Parse()

	logCfg := rlog.Config{Level: rlog.Info, Output: os.Stderr}
	if *verbose {
		logCfg.Level = rlog.Debug
	}
	logger := rlog.New(logCfg)
	rlog.SetDefault(logger)

	cfg := config.DefaultConfig()
	cfg.Port = *port
	cfg.Workers = *workers

	srv, err := ringhttpd.New(cfg, *fileRoot, logger)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("received shutdown signal")
		srv.Stop()
	}()

	fmt.Printf("ringhttpd listening on :%d with %d workers (files root: %s)\n", cfg.Port, cfg.Workers, *fileRoot)
	srv.ListenAndServe()
	logger.Infof("all workers drained, exiting")
}
