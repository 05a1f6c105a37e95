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

// Package config holds the server's tunable constants: listen port, worker
// count, provided-buffer sizing, and ring queue depth.
package config

import (
	"fmt"
	"runtime"

	"github.com/ringloop/ringhttpd/internal/bufpool"
)

// Config holds every compile-time-tunable governing the server's worker
// count, buffer pool sizing, listen backlog, and ring queue depth.
type Config struct {
	Port int

	// Workers is the thread pool size; defaults to GOMAXPROCS.
	Workers int

	// MaxBufferRingSize is the provided-buffer ring cardinality (power of two).
	MaxBufferRingSize int

	// MaxBufferSize is the byte size of each provided buffer.
	MaxBufferSize int

	// SocketListenQueueSize is the listen() backlog.
	SocketListenQueueSize int

	// RingQueueSize is the SQ/CQ ring depth per worker.
	RingQueueSize uint32
}

// DefaultConfig returns sensible HTTP-server defaults.
func DefaultConfig() Config {
	return Config{
		Port:                  8080,
		Workers:               runtime.GOMAXPROCS(0),
		MaxBufferRingSize:     1024,
		MaxBufferSize:         16 * 1024,
		SocketListenQueueSize: 1024,
		RingQueueSize:         4096,
	}
}

// Validate rejects configurations that would violate a hard invariant
// (buffer ring size must be a power of two, bounded by bufpool.MaxRingSize).
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if c.MaxBufferRingSize <= 0 || c.MaxBufferRingSize > bufpool.MaxRingSize || c.MaxBufferRingSize&(c.MaxBufferRingSize-1) != 0 {
		return fmt.Errorf("config: MaxBufferRingSize %d must be a power of two <= %d", c.MaxBufferRingSize, bufpool.MaxRingSize)
	}
	if c.MaxBufferSize <= 0 {
		return fmt.Errorf("config: MaxBufferSize must be positive, got %d", c.MaxBufferSize)
	}
	if c.SocketListenQueueSize <= 0 {
		return fmt.Errorf("config: SocketListenQueueSize must be positive, got %d", c.SocketListenQueueSize)
	}
	return nil
}
