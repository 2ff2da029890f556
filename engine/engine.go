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

// Package engine is the splitter orchestrator: the single producer
// thread that classifies every input frame, fans it out across one ring
// per shard, and drives the writer and status-emitter goroutines through
// their full lifecycle: spawn workers, pump work, join on exit, but for a
// fixed, known-in-advance set of N shard workers instead of one per
// incoming connection.
package engine

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/xtaci/splitcap/capture"
	"github.com/xtaci/splitcap/classify"
	"github.com/xtaci/splitcap/frame"
	"github.com/xtaci/splitcap/ring"
	"github.com/xtaci/splitcap/shard"
	"github.com/xtaci/splitcap/status"
	"github.com/xtaci/splitcap/telemetry"
)

// pushPollBackoff is how often pump rechecks errCh while a shard's ring is
// full, matching the ring package's own push back-off.
const pushPollBackoff = time.Millisecond

// Config holds the tunables engine.Split needs beyond the input/output
// paths themselves. Zero values fall back to sensible defaults.
type Config struct {
	RingCapacity   int
	StatusInterval time.Duration
	HashKey        classify.Key
}

func (c Config) ringCapacity() int {
	if c.RingCapacity > 0 {
		return c.RingCapacity
	}
	return ring.DefaultCapacity
}

func (c Config) statusInterval() time.Duration {
	if c.StatusInterval > 0 {
		return c.StatusInterval
	}
	return status.DefaultInterval
}

// terminationFlag is a write-once, read-many boolean. atomic.Bool already
// gives the read-biased single-word semantics this needs, so no RWMutex
// is introduced.
type terminationFlag struct {
	flag atomic.Bool
}

func (f *terminationFlag) set()        { f.flag.Store(true) }
func (f *terminationFlag) isSet() bool { return f.flag.Load() }

// Split runs the full pipeline: it opens outputPaths for writing (using
// reader's link-type/snaplen), spawns one writer goroutine per output and
// one status-emitter goroutine, then pumps every frame from reader
// through the classifier and into the matching ring. Once reader is
// exhausted it flips the termination flag, joins every writer, joins the
// status emitter, and returns.
//
// Any codec-level error -- from opening an output, reading the input
// mid-stream, or writing an output mid-stream -- is fatal: Split returns
// promptly with that error, and the caller is expected to treat a
// non-nil return as a reason to exit non-zero without trusting any
// output file it produced.
func Split(reader capture.Reader, outputPaths []string, statusPath string, cfg Config) error {
	n := len(outputPaths)
	if n == 0 {
		return errors.New("at least one output capture path is required")
	}

	datalink := reader.Datalink()
	snaplen := reader.Snaplen()
	ringCap := cfg.ringCapacity()

	rings := make([]*ring.Ring, n)
	writers := make([]capture.Writer, n)
	for i, path := range outputPaths {
		rings[i] = ring.New(ringCap)
		w, err := capture.OpenWrite(path, datalink, snaplen)
		if err != nil {
			closeAll(writers[:i])
			return err
		}
		writers[i] = w
	}

	table := telemetry.NewTable(n, rings[0].Capacity())
	flag := &terminationFlag{}

	errCh := make(chan error, n+1)
	var wg sync.WaitGroup

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			defer writers[i].Close()
			if err := shard.Run(rings[i], writers[i], flag.isSet); err != nil {
				errCh <- errors.Wrapf(err, "shard %d writer", i)
			}
		}(i)
	}

	var statusWG sync.WaitGroup
	statusWG.Add(1)
	go func() {
		defer statusWG.Done()
		if err := status.Run(statusPath, outputPaths, table, cfg.statusInterval(), flag.isSet); err != nil {
			errCh <- errors.Wrap(err, "status emitter")
		}
	}()

	classifier := classify.New(cfg.HashKey, n)
	pumpErr := pump(reader, classifier, rings, table, errCh)

	flag.set()
	wg.Wait()
	statusWG.Wait()
	close(errCh)

	if pumpErr != nil {
		return pumpErr
	}
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// pump classifies each frame, pushes it to its shard's ring, then updates
// telemetry in that order so no snapshot can report progress beyond what
// was actually pushed. It polls errCh on every iteration and between push
// retries, so a writer that has already died -- and will never again
// drain its ring -- unblocks the producer instead of leaving it to spin
// on a full ring forever.
func pump(reader capture.Reader, classifier *classify.Classifier, rings []*ring.Ring, table telemetry.Table, errCh <-chan error) error {
	for {
		if err := pollErr(errCh); err != nil {
			return err
		}

		f, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "read input capture")
		}

		i := classifier.Shard(f.Payload())
		if err := push(rings[i], f, errCh); err != nil {
			return err
		}
		table.Record(i, rings[i].FreeSpace())
	}
}

// push retries a non-blocking TryPush until it succeeds or errCh reports
// a writer failure, rather than blocking inside the ring indefinitely.
func push(r *ring.Ring, f frame.Frame, errCh <-chan error) error {
	for !r.TryPush(f) {
		if err := pollErr(errCh); err != nil {
			return err
		}
		time.Sleep(pushPollBackoff)
	}
	return nil
}

// pollErr reports the first error waiting on errCh, if any, without
// blocking.
func pollErr(errCh <-chan error) error {
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func closeAll(writers []capture.Writer) {
	for _, w := range writers {
		if w != nil {
			w.Close()
		}
	}
}
