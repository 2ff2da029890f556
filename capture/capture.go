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

// Package capture is the only place in this module that understands a
// capture file's on-disk format. Everything else in the pipeline depends
// only on the narrow Reader/Writer interfaces defined here, and on
// frame.Frame's Ethernet/IPv4-shaped bytes.
package capture

import "github.com/xtaci/splitcap/frame"

// LinkType identifies a capture format's link-layer encapsulation, e.g.
// Ethernet. Defined here rather than re-exporting the codec's own type so
// the core never imports the codec package directly.
type LinkType int

// Reader yields Frame values one at a time from a single input capture.
// End-of-input is signaled by Next returning io.EOF.
type Reader interface {
	// Datalink returns the input's link-layer type, queried once before
	// pumping frames.
	Datalink() LinkType
	// Snaplen returns the input's declared maximum captured-prefix
	// length, queried once before pumping frames.
	Snaplen() int
	// Next returns the next frame in capture order, or io.EOF once the
	// input is exhausted.
	Next() (frame.Frame, error)
	// Close releases the underlying file.
	Close() error
}

// Writer accepts Frame values and persists them to a single output
// capture, preserving Header and the captured prefix byte-for-byte.
type Writer interface {
	// Write durably hands f to the codec. A non-nil error is fatal to
	// the caller.
	Write(f frame.Frame) error
	// Close flushes and releases the underlying file.
	Close() error
}
