package report

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHasFailuresEmptyTree(t *testing.T) {
	if HasFailures(nil) {
		t.Error("empty tree should have no failures")
	}
	if HasFailures([]*Entry{}) {
		t.Error("empty slice should have no failures")
	}
}

func TestHasFailuresFailingAssertAtDepth(t *testing.T) {
	inner := NewStep("inner")
	inner.Children = append(inner.Children, NewAssertion("deep check", false, "boom"))
	outer := NewStep("outer")
	outer.Children = append(outer.Children, inner)

	if !HasFailures([]*Entry{outer}) {
		t.Error("failing assertion at depth 2 should surface")
	}
}

func TestHasFailuresIgnoresAttachments(t *testing.T) {
	step := NewStep("s")
	step.Children = append(step.Children,
		NewAttachment("log", ContentText, "anything"),
		NewAssertion("ok", true, ""),
	)
	if HasFailures([]*Entry{step}) {
		t.Error("attachments must not count as failures")
	}
}

func TestHasFailuresFailingStepFlag(t *testing.T) {
	step := NewStep("s")
	step.Passed = false // computed at scope close
	if !HasFailures([]*Entry{step}) {
		t.Error("step with passed=false should count as failure")
	}
}

func TestFailureLinesIndentation(t *testing.T) {
	inner := NewStep("inner step")
	inner.Children = append(inner.Children, NewAssertion("bad", false, "details here"))
	inner.Passed = false
	outer := NewStep("outer step")
	outer.Children = append(outer.Children, inner)
	outer.Passed = false

	lines := FailureLines([]*Entry{outer})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "Step failed: outer step" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "  Step failed: inner step" {
		t.Errorf("unexpected second line: %q", lines[1])
	}
	if lines[2] != "    Assert failed: bad (details here)" {
		t.Errorf("unexpected third line: %q", lines[2])
	}
}

func TestFailureLinesSkipsPassingEntries(t *testing.T) {
	step := NewStep("all good")
	step.Children = append(step.Children, NewAssertion("fine", true, ""))
	lines := FailureLines([]*Entry{step, NewAssertion("broken", false, "")})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "broken") {
		t.Errorf("line should reference the failing label: %q", lines[0])
	}
}

func TestEntryJSONVariants(t *testing.T) {
	step := NewStep("s1")
	step.Children = append(step.Children,
		NewAssertion("a1", false, "why"),
		NewAttachment("file", ContentJSON, `{"k":1}`),
	)

	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"type":"step"`) {
		t.Errorf("missing step tag: %s", s)
	}
	if !strings.Contains(s, `"type":"assert"`) || !strings.Contains(s, `"details":"why"`) {
		t.Errorf("missing assert fields: %s", s)
	}
	if !strings.Contains(s, `"content_type":"json"`) {
		t.Errorf("missing attachment content type: %s", s)
	}
	// step JSON must not leak assertion/attachment fields
	if strings.Contains(s, `"message":"s1"`) == false {
		t.Errorf("missing step message: %s", s)
	}

	var back Entry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != KindStep || len(back.Children) != 2 {
		t.Errorf("round-trip lost structure: %+v", back)
	}
	if back.Children[0].Details != "why" {
		t.Errorf("round-trip lost details: %+v", back.Children[0])
	}
}

func TestEntryJSONUnknownKind(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`{"type":"bogus"}`), &e); err == nil {
		t.Error("expected error for unknown kind")
	}
	bad := &Entry{Kind: "bogus"}
	if _, err := json.Marshal(bad); err == nil {
		t.Error("expected marshal error for unknown kind")
	}
}

func TestStepJSONEmptyChildrenIsArray(t *testing.T) {
	data, err := json.Marshal(NewStep("empty"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"children":[]`) {
		t.Errorf("empty step should serialize children as [], got %s", data)
	}
}
