package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xtaci/splitcap/telemetry"
)

func TestRunEmitsWellFormedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	paths := []string{"b.pcap", "a.pcap", "c.pcap"}
	table := telemetry.NewTable(len(paths), 1024)
	table.Record(0, 1023)
	table.Record(1, 1000)

	var flag atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- Run(path, paths, table, 5*time.Millisecond, flag.Load)
	}()

	time.Sleep(20 * time.Millisecond)
	flag.Store(true)

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading status file: %v", err)
	}

	var doc map[string]struct {
		Capacity int64 `json:"capacity"`
		RxFrames int64 `json:"rx_frames"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("status file is not valid JSON: %v", err)
	}
	if len(doc) != len(paths) {
		t.Fatalf("expected %d entries, got %d", len(paths), len(doc))
	}
	for _, p := range paths {
		entry, ok := doc[p]
		if !ok {
			t.Fatalf("missing entry for path %q", p)
		}
		if entry.Capacity < 0 || entry.RxFrames < 0 {
			t.Fatalf("negative field in entry for %q: %+v", p, entry)
		}
	}
	if doc["a.pcap"].RxFrames != 1 {
		t.Fatalf("expected shard 'a.pcap' to have 1 rx_frames, got %d", doc["a.pcap"].RxFrames)
	}
}

func TestMarshalOrdersKeysLexicographically(t *testing.T) {
	paths := []string{"z", "a", "m"}
	table := telemetry.NewTable(len(paths), 10)

	doc, err := marshal(paths, table)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	expectOrder := []string{`"a"`, `"m"`, `"z"`}
	s := string(doc)
	lastIdx := -1
	for _, key := range expectOrder {
		idx := indexOf(s, key)
		if idx < 0 {
			t.Fatalf("key %s not found in %s", key, s)
		}
		if idx < lastIdx {
			t.Fatalf("keys out of lexicographic order in %s", s)
		}
		lastIdx = idx
	}
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
