package trace

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, raw []byte) []Event {
	t.Helper()
	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestWriterEmitsJSONL(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-1")

	tw.EmitRunStart("suite", 2)
	tw.EmitCaseStart("first", "exec-1")
	tw.EmitCaseComplete("first", "passed", 10*time.Millisecond, false)
	tw.EmitDiagnostic("first", map[string]any{"unclosed_scopes": 1})
	tw.EmitRunComplete(map[string]any{"total": 2}, time.Second)

	events := decodeLines(t, buf.Bytes())
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	want := []EventType{EventRunStart, EventCaseStart, EventCaseComplete, EventDiagnostic, EventRunComplete}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Errorf("event %d: got %q, want %q", i, ev.Type, want[i])
		}
		if ev.RunID != "run-1" {
			t.Errorf("event %d: run_id %q", i, ev.RunID)
		}
		if ev.Timestamp.IsZero() {
			t.Errorf("event %d: zero timestamp", i)
		}
	}
}

func TestCaseCompletePayload(t *testing.T) {
	var buf bytes.Buffer
	tw := NewWriter(&buf, "run-2")
	tw.EmitCaseComplete("flaky", "skipped", 250*time.Millisecond, true)

	ev := decodeLines(t, buf.Bytes())[0]
	if ev.Data["case"] != "flaky" || ev.Data["verdict"] != "skipped" {
		t.Errorf("unexpected payload: %v", ev.Data)
	}
	if ev.Data["reclassified"] != true {
		t.Errorf("reclassified flag must survive encoding: %v", ev.Data)
	}
}

func TestFileWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	tw, err := NewFileWriter(path, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	tw.EmitRunStart("first", 1)
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	tw2, err := NewFileWriter(path, "run-b")
	if err != nil {
		t.Fatal(err)
	}
	tw2.EmitRunStart("second", 1)
	tw2.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	events := decodeLines(t, raw)
	if len(events) != 2 {
		t.Fatalf("reopening must append, got %d events", len(events))
	}
	if events[0].RunID != "run-a" || events[1].RunID != "run-b" {
		t.Errorf("got run ids %q, %q", events[0].RunID, events[1].RunID)
	}
}

func TestCloseWithoutFileIsNoOp(t *testing.T) {
	tw := NewWriter(&bytes.Buffer{}, "run-x")
	if err := tw.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
