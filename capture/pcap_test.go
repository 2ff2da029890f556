package capture

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/gopacket/gopacket/layers"
	"github.com/xtaci/splitcap/frame"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")

	w, err := OpenWrite(path, LinkType(layers.LinkTypeEthernet), 1500)
	if err != nil {
		t.Fatalf("OpenWrite: %v", err)
	}

	var f frame.Frame
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	copy(f.Bytes[:], payload)
	f.Header.CaptureLength = len(payload)
	f.Header.WireLength = len(payload)
	f.Header.Seconds = 1700000000
	f.Header.Microseconds = 123

	if err := w.Write(f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	r, err := OpenRead(path)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	defer r.Close()

	if r.Datalink() != LinkType(layers.LinkTypeEthernet) {
		t.Fatalf("unexpected datalink: %v", r.Datalink())
	}
	if r.Snaplen() != 1500 {
		t.Fatalf("unexpected snaplen: %d", r.Snaplen())
	}

	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.Header.CaptureLength != len(payload) {
		t.Fatalf("capture length mismatch: %d vs %d", got.Header.CaptureLength, len(payload))
	}
	if string(got.Payload()) != string(payload) {
		t.Fatalf("payload mismatch: %x vs %x", got.Payload(), payload)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of input, got %v", err)
	}
}
