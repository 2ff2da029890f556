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

// Package ring implements a bounded, wait-free single-producer/
// single-consumer FIFO of frame.Frame values. Exactly one goroutine may
// call Push and FreeSpace; exactly one (possibly different) goroutine may
// call TryPop, for the entire lifetime of a Ring.
package ring

import (
	"sync/atomic"
	"time"

	"github.com/xtaci/splitcap/frame"
)

// DefaultCapacity is the default per-shard ring capacity.
const DefaultCapacity = 262144

// pushBackoff is the spin/sleep back-off Push applies while waiting on a
// full ring.
const pushBackoff = time.Millisecond

// cacheLinePad separates the producer-owned and consumer-owned indices so
// they never share a cache line; the offsets follow the padded layout
// used by the retrieved lock-free ring implementations (node.step +
// _padding[40]byte, nodeBased.head/tail + _padding[56]byte).
type cacheLinePad [56]byte

// Ring is a fixed-capacity circular buffer of frames. head and tail are
// monotonically increasing counters (never wrapped themselves); only
// their use as a storage index is masked. This keeps full/empty
// disambiguation a plain subtraction instead of a reserved-slot trick.
//
// Only the producer goroutine stores tail; only the consumer goroutine
// stores head. Each side loads the other's index to test for full/empty.
// Each is published with Store (release) after the corresponding slot
// write/read, and observed with Load (acquire) before touching the slot
// the other side owns.
type Ring struct {
	head atomic.Uint64
	_    cacheLinePad
	tail atomic.Uint64
	_    cacheLinePad

	capacity uint64 // power of two
	mask     uint64
	storage  []frame.Frame
}

// New allocates a Ring whose usable capacity is the next power of two
// greater than or equal to capacity.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	size := nextPowerOfTwo(uint64(capacity))
	return &Ring{
		capacity: size,
		mask:     size - 1,
		storage:  make([]frame.Frame, size),
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the number of frames the ring can hold at once.
func (r *Ring) Capacity() int {
	return int(r.capacity)
}

// Push stores f at the tail slot, blocking with a 1ms back-off while the
// ring is full. Producer-only; never fails. Callers that need to react to
// something other than the ring draining -- a dead consumer, a shutdown
// signal -- should poll TryPush themselves instead.
func (r *Ring) Push(f frame.Frame) {
	for !r.TryPush(f) {
		time.Sleep(pushBackoff)
	}
}

// TryPush stores f at the tail slot without blocking, reporting false if
// the ring is currently full. Producer-only.
func (r *Ring) TryPush(f frame.Frame) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= r.capacity {
		return false
	}
	r.storage[tail&r.mask] = f
	r.tail.Store(tail + 1)
	return true
}

// TryPop removes and returns the head frame, or reports ok=false if the
// ring is currently empty. Consumer-only.
func (r *Ring) TryPop() (f frame.Frame, ok bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return frame.Frame{}, false
	}
	f = r.storage[head&r.mask]
	r.head.Store(head + 1)
	return f, true
}

// FreeSpace reports the number of additional frames that can currently
// be pushed. Producer-only: it is only meaningful read from the pushing
// goroutine, immediately after a push.
func (r *Ring) FreeSpace() int {
	used := r.tail.Load() - r.head.Load()
	return int(r.capacity - used)
}

// Empty reports whether head == tail, the shutdown-drain postcondition
// every ring must satisfy after its writer exits.
func (r *Ring) Empty() bool {
	return r.head.Load() == r.tail.Load()
}
