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

package capture

import (
	"io"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"github.com/pkg/errors"
	"github.com/xtaci/splitcap/frame"
)

// pcapReader adapts pcapgo.Reader to the Reader interface. This file is
// the only non-test code in this module that imports the pcap codec.
type pcapReader struct {
	file *os.File
	r    *pcapgo.Reader
}

// OpenRead opens path as a classic-format pcap file for reading. The
// returned Reader's Datalink and Snaplen reflect the file's global
// header.
func OpenRead(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open input capture %q", path)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "read pcap header %q", path)
	}
	return &pcapReader{file: f, r: r}, nil
}

func (p *pcapReader) Datalink() LinkType {
	return LinkType(p.r.LinkType())
}

func (p *pcapReader) Snaplen() int {
	return int(p.r.Snaplen())
}

func (p *pcapReader) Next() (frame.Frame, error) {
	data, ci, err := p.r.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return frame.Frame{}, io.EOF
		}
		return frame.Frame{}, errors.Wrap(err, "read packet")
	}

	var f frame.Frame
	f.Header = frame.Header{
		Seconds:       ci.Timestamp.Unix(),
		Microseconds:  int64(ci.Timestamp.Nanosecond() / 1000),
		WireLength:    ci.Length,
		CaptureLength: ci.CaptureLength,
	}
	n := copy(f.Bytes[:], data)
	f.Header.CaptureLength = n
	return f, nil
}

func (p *pcapReader) Close() error {
	return p.file.Close()
}

// pcapWriter adapts pcapgo.Writer to the Writer interface.
type pcapWriter struct {
	file *os.File
	w    *pcapgo.Writer
}

// OpenWrite creates (or truncates) path as a classic-format pcap file,
// writing a global header with the given link-type and snaplen so the
// output is structurally identical to whatever input it was split from.
func OpenWrite(path string, link LinkType, snaplen int) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create output capture %q", path)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(snaplen), layers.LinkType(link)); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "write pcap header %q", path)
	}
	return &pcapWriter{file: f, w: w}, nil
}

func (p *pcapWriter) Write(f frame.Frame) error {
	usec := time.Duration(f.Header.Microseconds) * time.Microsecond
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Unix(f.Header.Seconds, 0).Add(usec),
		CaptureLength: f.Header.CaptureLength,
		Length:        f.Header.WireLength,
	}
	if err := p.w.WritePacket(ci, f.Payload()); err != nil {
		return errors.Wrap(err, "write packet")
	}
	return nil
}

func (p *pcapWriter) Close() error {
	return p.file.Close()
}
