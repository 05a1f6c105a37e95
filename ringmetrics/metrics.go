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

// Package ringmetrics tracks server-wide counters and a request-latency
// histogram, grounded on go-ublk's metrics.go (an example repo, not this
// project's teacher) with I/O-operation counters replaced by HTTP/connection
// ones.
package ringmetrics

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets are the histogram boundaries in nanoseconds, 1us to 10s.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics holds process-wide atomic counters, sharded across workers only
// by virtue of every worker pointing at the same instance.
type Metrics struct {
	ConnectionsAccepted atomic.Uint64
	ConnectionsClosed   atomic.Uint64
	RequestsServed      atomic.Uint64
	RequestErrors       atomic.Uint64
	BytesRecv           atomic.Uint64
	BytesSent           atomic.Uint64
	SpliceBytes         atomic.Uint64
	BufferPoolExhausted atomic.Uint64

	totalLatencyNs atomic.Uint64
	opCount        atomic.Uint64
	latencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// New creates a ready-to-use Metrics instance.
func New() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRequest records one completed request's latency.
func (m *Metrics) RecordRequest(latency time.Duration, ok bool) {
	m.RequestsServed.Add(1)
	if !ok {
		m.RequestErrors.Add(1)
	}
	ns := uint64(latency.Nanoseconds())
	m.totalLatencyNs.Add(ns)
	m.opCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if ns <= bucket {
			m.latencyBuckets[i].Add(1)
		}
	}
}

// Snapshot is a point-in-time copy of the counters, safe to log or expose.
type Snapshot struct {
	ConnectionsAccepted uint64
	ConnectionsClosed   uint64
	RequestsServed      uint64
	RequestErrors       uint64
	BytesRecv           uint64
	BytesSent           uint64
	SpliceBytes         uint64
	BufferPoolExhausted uint64
	AvgLatencyNs        uint64
	UptimeNs            uint64
	LatencyHistogram    [numLatencyBuckets]uint64
}

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		ConnectionsAccepted: m.ConnectionsAccepted.Load(),
		ConnectionsClosed:   m.ConnectionsClosed.Load(),
		RequestsServed:      m.RequestsServed.Load(),
		RequestErrors:       m.RequestErrors.Load(),
		BytesRecv:           m.BytesRecv.Load(),
		BytesSent:           m.BytesSent.Load(),
		SpliceBytes:         m.SpliceBytes.Load(),
		BufferPoolExhausted: m.BufferPoolExhausted.Load(),
		UptimeNs:            uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if ops := m.opCount.Load(); ops > 0 {
		s.AvgLatencyNs = m.totalLatencyNs.Load() / ops
	}
	for i := range m.latencyBuckets {
		s.LatencyHistogram[i] = m.latencyBuckets[i].Load()
	}
	return s
}
