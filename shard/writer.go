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

// Package shard runs the sole consumer of one shard's ring: drain frames
// to a capture-file Writer until told to stop, then finish draining
// whatever is left before exiting.
package shard

import (
	"time"

	"github.com/xtaci/splitcap/capture"
	"github.com/xtaci/splitcap/ring"
)

// popBackoff is the poll interval between empty TryPop attempts.
const popBackoff = time.Millisecond

// Done reports whether the shared termination flag has been raised. The
// orchestrator satisfies this with a thin closure over its own flag type,
// so this package has no import-time dependency on the orchestrator.
type Done func() bool

// Run drains r into w until done() is true AND the ring is empty. It
// returns the first write error encountered, if any; such an error is
// fatal to the caller.
func Run(r *ring.Ring, w capture.Writer, done Done) error {
	for {
		if f, ok := r.TryPop(); ok {
			if err := w.Write(f); err != nil {
				return err
			}
			continue
		}
		if done() {
			return drain(r, w)
		}
		time.Sleep(popBackoff)
	}
}

// drain flushes whatever remains in r after the termination flag has
// been observed, guaranteeing head == tail before Run returns.
func drain(r *ring.Ring, w capture.Writer) error {
	for {
		f, ok := r.TryPop()
		if !ok {
			return nil
		}
		if err := w.Write(f); err != nil {
			return err
		}
	}
}
