// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package telemetry holds the per-shard counters the orchestrator writes
// and the status emitter reads: a plain struct of atomics behind a
// shared handle. No ordering between the counters is relied on, since
// the emitter's snapshots are approximate by design.
package telemetry

import "sync/atomic"

// Stats is one shard's counters: rx_frames is a monotonic count of
// frames pushed into the shard's ring; Capacity is a free-slot gauge
// overwritten after every push. Both are plain atomics; no
// happens-before relationship with the payload bytes is required or
// provided.
type Stats struct {
	RxFrames atomic.Uint64
	Capacity atomic.Uint64
}

// Table is the fixed-length, per-shard telemetry block: one *Stats per
// output. The slice itself is the shared, read-only handle; the atomics
// behind each pointer are what mutates.
type Table []*Stats

// NewTable allocates a Table of n shards, each Capacity gauge
// initialized to ringCapacity.
func NewTable(n, ringCapacity int) Table {
	t := make(Table, n)
	for i := range t {
		s := &Stats{}
		s.Capacity.Store(uint64(ringCapacity))
		t[i] = s
	}
	return t
}

// Record updates shard i's counters after a push: rx_frames increments,
// and capacity is overwritten with the ring's current free-slot count.
// The two stores are independent atomic operations; readers tolerate a
// torn snapshot.
func (t Table) Record(i int, freeSlots int) {
	s := t[i]
	s.RxFrames.Add(1)
	s.Capacity.Store(uint64(freeSlots))
}

// Snapshot is a torn-tolerant, independently-read copy of one shard's
// counters, suitable for JSON marshaling.
type Snapshot struct {
	Capacity uint64
	RxFrames uint64
}

// Snapshot reads shard i's counters independently (rx_frames then
// capacity), with no atomicity across the pair: the status emitter
// tolerates a logically torn snapshot by design.
func (t Table) Snapshot(i int) Snapshot {
	s := t[i]
	return Snapshot{
		RxFrames: s.RxFrames.Load(),
		Capacity: s.Capacity.Load(),
	}
}
