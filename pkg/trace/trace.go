// Package trace implements the runner's append-only JSONL event trail.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EventType enumerates all runner trace event types.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventRunComplete  EventType = "run_complete"
	EventCaseStart    EventType = "case_start"
	EventCaseComplete EventType = "case_complete"
	EventDiagnostic   EventType = "diagnostic"
)

// Event is a single trace event written to the JSONL stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Writer writes trace events to an append-only JSONL stream.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	c     io.Closer
	runID string
	enc   *json.Encoder
}

// NewWriter creates a trace writer that writes to the given io.Writer.
func NewWriter(w io.Writer, runID string) *Writer {
	return &Writer{
		w:     w,
		runID: runID,
		enc:   json.NewEncoder(w),
	}
}

// NewFileWriter creates a trace writer that appends to a JSONL file.
func NewFileWriter(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	tw := NewWriter(f, runID)
	tw.c = f
	return tw, nil
}

// Emit writes a single trace event.
func (tw *Writer) Emit(eventType EventType, data map[string]any) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	evt := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     tw.runID,
		Data:      data,
	}
	return tw.enc.Encode(evt)
}

// EmitRunStart emits a run_start event.
func (tw *Writer) EmitRunStart(title string, total int) error {
	return tw.Emit(EventRunStart, map[string]any{
		"title": title,
		"total": total,
	})
}

// EmitCaseStart emits a case_start event.
func (tw *Writer) EmitCaseStart(name, executionID string) error {
	return tw.Emit(EventCaseStart, map[string]any{
		"case":         name,
		"execution_id": executionID,
	})
}

// EmitCaseComplete emits a case_complete event with the corrected verdict.
func (tw *Writer) EmitCaseComplete(name, verdict string, duration time.Duration, reclassified bool) error {
	return tw.Emit(EventCaseComplete, map[string]any{
		"case":         name,
		"verdict":      verdict,
		"duration":     duration.String(),
		"reclassified": reclassified,
	})
}

// EmitDiagnostic emits a diagnostic event for structural inconsistencies
// detected while recording (stack underflows, unclosed scopes, late writes).
func (tw *Writer) EmitDiagnostic(name string, counts map[string]any) error {
	data := map[string]any{"case": name}
	for k, v := range counts {
		data[k] = v
	}
	return tw.Emit(EventDiagnostic, data)
}

// EmitRunComplete emits a run_complete event.
func (tw *Writer) EmitRunComplete(summary map[string]any, duration time.Duration) error {
	data := map[string]any{
		"duration": duration.String(),
	}
	if summary != nil {
		data["summary"] = summary
	}
	return tw.Emit(EventRunComplete, data)
}

// Close closes the underlying file when the writer owns one.
func (tw *Writer) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.c != nil {
		return tw.c.Close()
	}
	return nil
}
