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

// Package frame defines the owned, fixed-capacity packet record that moves
// through exactly one shard ring between the reader and a shard writer.
package frame

// MaxCaptureLength is the largest captured prefix a Frame can hold.
const MaxCaptureLength = 1500

// Header carries the capture-time metadata recorded by the upstream
// capture codec: a wall-clock timestamp plus the on-wire and captured
// lengths.
type Header struct {
	Seconds       int64 // capture timestamp, seconds
	Microseconds  int64 // capture timestamp, microseconds
	WireLength    int   // length of the packet as it appeared on the wire
	CaptureLength int   // number of octets actually captured into Bytes
}

// Frame is an owned record: a captured packet prefix plus its header. A
// Frame is created once by a Reader, pushed into exactly one Ring, and
// handed to exactly one Writer. It is never aliased between shards.
type Frame struct {
	Header Header
	Bytes  [MaxCaptureLength]byte
}

// Payload returns the captured prefix, sized to Header.CaptureLength.
func (f *Frame) Payload() []byte {
	n := f.Header.CaptureLength
	if n > MaxCaptureLength {
		n = MaxCaptureLength
	}
	if n < 0 {
		n = 0
	}
	return f.Bytes[:n]
}
