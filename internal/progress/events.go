package progress

import "time"

type EventType string

const (
	EventScanStarted     EventType = "scan_started"
	EventFilesDiscovered EventType = "files_discovered"
	EventFileScanned     EventType = "file_scanned"
	EventFileSkipped     EventType = "file_skipped"
	EventDetectorFailed  EventType = "detector_failed"
	EventScanFinished    EventType = "scan_finished"
)

// lifecycle events are emitted once per scan by the coordinating goroutine.
func (t EventType) lifecycle() bool {
	switch t {
	case EventScanStarted, EventFilesDiscovered, EventScanFinished:
		return true
	}
	return false
}

type Event struct {
	Type         EventType `json:"type"`
	At           time.Time `json:"at"`
	ScanID       string    `json:"scan_id,omitempty"`
	File         string    `json:"file,omitempty"`
	Detector     string    `json:"detector,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
	FileCount    int       `json:"file_count,omitempty"`
	FindingCount int       `json:"finding_count,omitempty"`
	DurationMS   int64     `json:"duration_ms,omitempty"`
}
