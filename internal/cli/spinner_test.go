package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// captureStatus redirects status output and spinner frames to buffers.
func captureStatus(t *testing.T) (status, frames *bytes.Buffer) {
	t.Helper()
	status, frames = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldSpin := stdout, spinnerOut
	stdout, spinnerOut = status, frames
	t.Cleanup(func() { stdout, spinnerOut = oldOut, oldSpin })
	return status, frames
}

func TestSpinnerSilentWithoutTerminal(t *testing.T) {
	_, frames := captureStatus(t)

	s := newSpinner("Computing layout...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if frames.Len() != 0 {
		t.Errorf("spinner drew to a non-terminal writer: %q", frames.String())
	}
	if s.Cancelled() {
		t.Error("Stop() should not count as cancellation")
	}
}

func TestSpinnerFinalMessages(t *testing.T) {
	tests := []struct {
		name string
		stop func(*Spinner)
		want string
	}{
		{"success", func(s *Spinner) { s.StopWithSuccess("Layout complete") }, "Layout complete"},
		{"error", func(s *Spinner) { s.StopWithError("Render failed") }, "Render failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := captureStatus(t)
			s := newSpinner("Rendering...")
			s.Start()
			tt.stop(s)
			if !strings.Contains(status.String(), tt.want) {
				t.Errorf("status output = %q, want %q", status.String(), tt.want)
			}
		})
	}
}

func TestSpinnerCancelledByContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"interrupt", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()

			s := newSpinnerWithContext(ctx, "Fetching feed...")
			s.Start()
			time.Sleep(100 * time.Millisecond)

			if !s.Cancelled() {
				t.Error("spinner should report cancellation once its context ends")
			}
			s.Stop()
			if s.Cancelled() {
				t.Error("Cancelled() should be false after Stop")
			}
		})
	}
}

func TestSpinnerStop(t *testing.T) {
	t.Run("repeated", func(t *testing.T) {
		s := newSpinner("Rendering...")
		s.Start()
		s.Stop()
		s.Stop()
	})
	t.Run("never started", func(t *testing.T) {
		s := newSpinner("Rendering...")
		s.Stop()
		if s.Cancelled() {
			t.Error("stopped spinner should not report cancellation")
		}
	})
}

func TestSpinnerSetMessage(t *testing.T) {
	s := newSpinner("Importing events...")
	s.Start()
	s.SetMessage("Computing layout...")
	s.Stop()
	if s.message != "Computing layout..." {
		t.Errorf("message = %q", s.message)
	}
}
