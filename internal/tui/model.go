package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/beejak/MCP-Sentinel/internal/progress"
	"github.com/beejak/MCP-Sentinel/internal/sanitize"
)

const (
	maxRecent = 8
	barWidth  = 30
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	findStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
)

var spinner = []string{"-", "\\", "|", "/"}

type eventMsg struct {
	event progress.Event
	ok    bool
}

type tickMsg time.Time

type model struct {
	events <-chan progress.Event

	scanID     string
	startedAt  time.Time
	finishedAt time.Time
	errText    string

	total    int
	scanned  int
	skipped  int
	findings int
	failures int
	current  string
	recent   []string

	finished    bool
	closed      bool
	interrupted bool
	tick        int
}

func newModel(events <-chan progress.Event) model {
	return model{events: events}
}

func waitForEvent(ch <-chan progress.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		return eventMsg{event: ev, ok: ok}
	}
}

func nextTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), nextTick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if s := msg.String(); s == "ctrl+c" || s == "q" {
			m.interrupted = true
			return m, tea.Quit
		}
	case eventMsg:
		if !msg.ok {
			m.closed = true
			return m, tea.Quit
		}
		m.apply(msg.event)
		return m, waitForEvent(m.events)
	case tickMsg:
		if m.closed {
			return m, nil
		}
		m.tick++
		return m, nextTick()
	}
	return m, nil
}

func (m *model) apply(e progress.Event) {
	file := sanitize.Path(e.File)
	switch e.Type {
	case progress.EventScanStarted:
		m.scanID = e.ScanID
		m.startedAt = e.At
	case progress.EventFilesDiscovered:
		m.total = e.FileCount
	case progress.EventFileScanned:
		m.scanned++
		m.findings += e.FindingCount
		m.current = file
		if e.FindingCount > 0 {
			m.note(fmt.Sprintf("%s: %d finding(s)", file, e.FindingCount))
		}
	case progress.EventFileSkipped:
		m.skipped++
		m.note(fmt.Sprintf("skipped %s: %s", file, strings.TrimSpace(e.Error)))
	case progress.EventDetectorFailed:
		m.failures++
		m.note(fmt.Sprintf("detector %s failed on %s", e.Detector, file))
	case progress.EventScanFinished:
		m.finished = true
		m.finishedAt = e.At
		m.errText = strings.TrimSpace(e.Error)
		if m.errText == "" {
			// Suppressions are applied after the per-file events.
			m.scanned = e.FileCount
			m.findings = e.FindingCount
		}
		m.current = ""
	}
}

func (m *model) note(line string) {
	m.recent = append(m.recent, line)
	if len(m.recent) > maxRecent {
		m.recent = m.recent[len(m.recent)-maxRecent:]
	}
}

func (m model) View() string {
	var b strings.Builder

	status := spinner[m.tick%len(spinner)]
	switch {
	case m.errText != "":
		status = warnStyle.Render("failed: " + m.errText)
	case m.finished:
		status = doneStyle.Render("done")
	}
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render("MCP-Sentinel scan"), status)
	if m.scanID != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Scan:"), m.scanID)
	}

	processed := m.scanned + m.skipped
	fmt.Fprintf(&b, "%s %d/%d files\n", barStyle.Render(bar(processed, m.total, barWidth)), processed, m.total)

	findings := fmt.Sprintf("%d", m.findings)
	if m.findings > 0 {
		findings = findStyle.Render(findings)
	}
	fmt.Fprintf(&b, "%s %s  %s %d  %s %d\n",
		labelStyle.Render("Findings:"), findings,
		labelStyle.Render("Skipped:"), m.skipped,
		labelStyle.Render("Detector failures:"), m.failures,
	)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Elapsed:"), m.elapsed())
	if m.current != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Current:"), m.current)
	}

	if len(m.recent) > 0 {
		b.WriteString("\n" + headerStyle.Render("Recent") + "\n")
		for _, line := range m.recent {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m model) elapsed() string {
	if m.startedAt.IsZero() {
		return "0s"
	}
	end := m.finishedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(m.startedAt).Round(100 * time.Millisecond).String()
}

// bar renders done out of total as a fixed-width text progress bar.
func bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(width, done*width/total)
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
