package tui

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beejak/MCP-Sentinel/internal/progress"
)

func feed(t *testing.T, m model, events ...progress.Event) model {
	t.Helper()
	for _, e := range events {
		next, cmd := m.Update(eventMsg{event: e, ok: true})
		require.NotNil(t, cmd, "expected the model to keep listening")
		m = next.(model)
	}
	return m
}

func TestModel_CountsEvents(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := feed(t, newModel(nil),
		progress.Event{Type: progress.EventScanStarted, ScanID: "scan-1", At: start},
		progress.Event{Type: progress.EventFilesDiscovered, FileCount: 4},
		progress.Event{Type: progress.EventFileScanned, File: "a.py", FindingCount: 2},
		progress.Event{Type: progress.EventFileScanned, File: "b.py"},
		progress.Event{Type: progress.EventFileSkipped, File: "c.bin", Error: "binary file"},
		progress.Event{Type: progress.EventDetectorFailed, File: "d.py", Detector: "ssrf", Error: "boom"},
	)

	assert.Equal(t, "scan-1", m.scanID)
	assert.Equal(t, 4, m.total)
	assert.Equal(t, 2, m.scanned)
	assert.Equal(t, 1, m.skipped)
	assert.Equal(t, 2, m.findings)
	assert.Equal(t, 1, m.failures)
	assert.Equal(t, "b.py", m.current)
	assert.Equal(t, []string{
		"a.py: 2 finding(s)",
		"skipped c.bin: binary file",
		"detector ssrf failed on d.py",
	}, m.recent)

	view := m.View()
	assert.Contains(t, view, "3/4 files")
	assert.Contains(t, view, "scan-1")
	assert.Contains(t, view, "a.py: 2 finding(s)")
}

func TestModel_FinishedEventIsAuthoritative(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := feed(t, newModel(nil),
		progress.Event{Type: progress.EventScanStarted, At: start},
		progress.Event{Type: progress.EventFileScanned, File: "a.py", FindingCount: 3},
		progress.Event{Type: progress.EventScanFinished, At: start.Add(1500 * time.Millisecond), FileCount: 5, FindingCount: 1},
	)

	assert.True(t, m.finished)
	assert.Equal(t, 5, m.scanned)
	assert.Equal(t, 1, m.findings)
	assert.Empty(t, m.current)
	assert.Equal(t, "1.5s", m.elapsed())
	assert.Contains(t, m.View(), "done")
}

func TestModel_FinishedWithError(t *testing.T) {
	m := feed(t, newModel(nil),
		progress.Event{Type: progress.EventFileScanned, File: "a.py", FindingCount: 1},
		progress.Event{Type: progress.EventScanFinished, Error: "context canceled"},
	)
	assert.Equal(t, 1, m.findings)
	assert.Contains(t, m.View(), "failed: context canceled")
}

func TestModel_RecentIsBounded(t *testing.T) {
	m := newModel(nil)
	for i := 0; i < maxRecent+5; i++ {
		m = feed(t, m, progress.Event{Type: progress.EventFileSkipped, File: "x", Error: "e"})
	}
	assert.Len(t, m.recent, maxRecent)
}

func TestModel_QuitsWhenChannelCloses(t *testing.T) {
	next, cmd := newModel(nil).Update(eventMsg{ok: false})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, next.(model).closed)
}

func TestModel_KeyInterrupts(t *testing.T) {
	next, cmd := newModel(nil).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, next.(model).interrupted)

	_, cmd = newModel(nil).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
}

func TestBar(t *testing.T) {
	assert.Equal(t, "[----]", bar(0, 0, 4))
	assert.Equal(t, "[##--]", bar(1, 2, 4))
	assert.Equal(t, "[####]", bar(9, 4, 4))
}

func TestRun_ReturnsWhenEventsClose(t *testing.T) {
	events := make(chan progress.Event, 2)
	events <- progress.Event{Type: progress.EventFilesDiscovered, FileCount: 1}
	events <- progress.Event{Type: progress.EventScanFinished, FileCount: 1}
	close(events)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Run(ctx, Options{Events: events, Output: &out}))
}

func TestRun_RequiresEvents(t *testing.T) {
	require.Error(t, Run(context.Background(), Options{}))
}
