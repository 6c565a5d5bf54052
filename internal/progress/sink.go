package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/beejak/MCP-Sentinel/internal/sanitize"
)

// Sink receives scan lifecycle events. Emit is called from worker
// goroutines and must be safe for concurrent use.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) {
	f(e)
}

type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// lineWriter serializes whole lines so concurrent events never interleave.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(line []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(line, '\n'))
}

func stamp(e *Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
}

// ChannelSink forwards events to a channel read by a live view. Per-file
// events are dropped while the channel is full; lifecycle events wait for the
// reader until ctx is done.
type ChannelSink struct {
	ctx context.Context
	ch  chan<- Event
}

func NewChannelSink(ctx context.Context, ch chan<- Event) *ChannelSink {
	return &ChannelSink{ctx: ctx, ch: ch}
}

func (s *ChannelSink) Emit(e Event) {
	if s == nil || s.ch == nil {
		return
	}
	stamp(&e)
	if e.Type.lifecycle() {
		select {
		case s.ch <- e:
		case <-s.ctx.Done():
		}
		return
	}
	select {
	case s.ch <- e:
	default:
	}
}

// PlainSink prints one human readable line per event.
type PlainSink struct {
	out lineWriter
}

func NewPlainSink(w io.Writer) *PlainSink {
	return &PlainSink{out: lineWriter{w: w}}
}

func (s *PlainSink) Emit(e Event) {
	if s == nil || s.out.w == nil {
		return
	}
	stamp(&e)
	if line := formatPlain(e); line != "" {
		s.out.writeLine([]byte(line))
	}
}

// JSONSink writes each event as one JSON object per line.
type JSONSink struct {
	out lineWriter
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{out: lineWriter{w: w}}
}

func (s *JSONSink) Emit(e Event) {
	if s == nil || s.out.w == nil {
		return
	}
	stamp(&e)
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.out.writeLine(data)
}

func formatPlain(e Event) string {
	file := sanitize.Path(e.File)
	errText := strings.TrimSpace(e.Error)

	var msg string
	switch e.Type {
	case EventScanStarted:
		msg = fmt.Sprintf("scan %s started", e.ScanID)
	case EventFilesDiscovered:
		msg = fmt.Sprintf("discovered %d files", e.FileCount)
	case EventFileScanned:
		msg = fmt.Sprintf("scanned %s findings=%d", file, e.FindingCount)
	case EventFileSkipped:
		reason := errText
		if reason == "" {
			reason = strings.TrimSpace(e.Message)
		}
		msg = fmt.Sprintf("skipped %s: %s", file, reason)
	case EventDetectorFailed:
		msg = fmt.Sprintf("warning: detector %s failed on %s: %s", e.Detector, file, errText)
	case EventScanFinished:
		msg = fmt.Sprintf("scan %s finished files=%d findings=%d duration=%dms",
			e.ScanID, e.FileCount, e.FindingCount, e.DurationMS)
		if errText != "" {
			msg += " error=" + errText
		}
	default:
		return ""
	}
	return "[" + e.At.Format(time.TimeOnly) + "] " + msg
}
