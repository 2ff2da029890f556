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

// Package status periodically snapshots telemetry.Table and writes it out
// as JSON on a ticker, the same ticker-driven shape as a CSV logger that
// appends every interval. Unlike a CSV append-per-tick logger, this
// emitter overwrites a single file each tick rather than appending, and
// stops only once the termination flag is observed.
package status

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/xtaci/splitcap/telemetry"
)

// DefaultInterval is the default snapshot cadence.
const DefaultInterval = 100 * time.Millisecond

// Done reports whether the shared termination flag has been raised.
type Done func() bool

// entry is one shard's JSON-encoded row, keyed by its caller-supplied
// output path. The inner object's field order (capacity then rx_frames)
// comes from this struct's field order, which encoding/json preserves;
// the outer object's path keys are what need explicit ordering in
// marshal, since map iteration order is unspecified.
type entry struct {
	Capacity uint64 `json:"capacity"`
	RxFrames uint64 `json:"rx_frames"`
}

// Run snapshots table every interval and writes a JSON document to path,
// keyed by paths[i] for shard i. It blocks until done() reports true,
// then performs one final snapshot before returning.
func Run(path string, paths []string, table telemetry.Table, interval time.Duration, done Done) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		<-ticker.C
		if err := write(path, paths, table); err != nil {
			return err
		}
		if done() {
			return write(path, paths, table)
		}
	}
}

// write renders one snapshot and persists it. The write need not be
// atomic: a straight truncate-and-write is acceptable since every tick
// overwrites the previous, possibly-partial read.
func write(path string, paths []string, table telemetry.Table) error {
	doc, err := marshal(paths, table)
	if err != nil {
		return errors.Wrap(err, "marshal status snapshot")
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return errors.Wrapf(err, "write status file %q", path)
	}
	return nil
}

// marshal builds the outer JSON object with keys in lexicographic order
// by output path, since Go's map iteration order is randomized and
// encoding/json.Marshal of a map would not give a stable ordering.
func marshal(paths []string, table telemetry.Table) ([]byte, error) {
	order := append([]string(nil), paths...)
	sort.Strings(order)

	index := make(map[string]int, len(paths))
	for i, p := range paths {
		index[p] = i
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		snap := table.Snapshot(index[p])
		val, err := json.Marshal(entry{Capacity: snap.Capacity, RxFrames: snap.RxFrames})
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
