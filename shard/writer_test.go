package shard

import (
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/xtaci/splitcap/frame"
	"github.com/xtaci/splitcap/ring"
)

type fakeWriter struct {
	written []frame.Frame
	failAt  int // -1 disables
}

func (w *fakeWriter) Write(f frame.Frame) error {
	if w.failAt >= 0 && len(w.written) == w.failAt {
		return errors.New("simulated write failure")
	}
	w.written = append(w.written, f)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestRunDrainsBeforeExit(t *testing.T) {
	r := ring.New(16)
	for i := 0; i < 5; i++ {
		var f frame.Frame
		f.Header.CaptureLength = i
		r.Push(f)
	}

	var flag atomic.Bool
	flag.Store(true) // termination already signaled; ring still has backlog

	w := &fakeWriter{failAt: -1}
	if err := Run(r, w, flag.Load); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(w.written) != 5 {
		t.Fatalf("expected 5 frames drained, got %d", len(w.written))
	}
	if !r.Empty() {
		t.Fatalf("ring not empty after Run returned")
	}
}

func TestRunPropagatesWriteError(t *testing.T) {
	r := ring.New(16)
	var f frame.Frame
	r.Push(f)
	r.Push(f)

	var flag atomic.Bool
	w := &fakeWriter{failAt: 0}

	err := Run(r, w, flag.Load)
	if err == nil {
		t.Fatalf("expected error from failing writer")
	}
}

func TestRunWaitsForFlagBeforeExiting(t *testing.T) {
	r := ring.New(16)
	var flag atomic.Bool
	w := &fakeWriter{failAt: -1}

	done := make(chan error, 1)
	go func() {
		done <- Run(r, w, flag.Load)
	}()

	var f frame.Frame
	r.Push(f)
	r.Push(f)

	flag.Store(true)

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(w.written) != 2 {
		t.Fatalf("expected 2 frames written, got %d", len(w.written))
	}
}
