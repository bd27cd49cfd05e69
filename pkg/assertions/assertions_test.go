package assertions

import (
	"context"
	"strings"
	"testing"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

func begin(t *testing.T) (context.Context, *execution.Execution) {
	t.Helper()
	ctx, exec := execution.Begin(context.Background())
	t.Cleanup(func() { exec.Finalize() })
	return ctx, exec
}

func lastEntry(t *testing.T, exec *execution.Execution) *report.Entry {
	t.Helper()
	if len(exec.Root) == 0 {
		t.Fatal("no entries recorded")
	}
	return exec.Root[len(exec.Root)-1]
}

func TestContains(t *testing.T) {
	ctx, exec := begin(t)

	if !Contains(ctx, "deployment ready", "ready") {
		t.Error("substring present must pass")
	}
	if Contains(ctx, "deployment pending", "ready") {
		t.Error("substring absent must fail")
	}
	e := lastEntry(t, exec)
	if e.Passed {
		t.Error("failing check must record a failing assertion")
	}
	if !strings.Contains(e.Details, "got: deployment pending") {
		t.Errorf("details should carry the output, got %q", e.Details)
	}
}

func TestContainsTruncatesLongOutput(t *testing.T) {
	ctx, exec := begin(t)

	Contains(ctx, strings.Repeat("x", 300), "missing")
	e := lastEntry(t, exec)
	if !strings.HasSuffix(e.Details, "...") {
		t.Errorf("long output should be cut with an ellipsis, got %d bytes", len(e.Details))
	}
}

func TestNotContains(t *testing.T) {
	ctx, _ := begin(t)

	if !NotContains(ctx, "all good", "error") {
		t.Error("absent substring must pass")
	}
	if NotContains(ctx, "an error occurred", "error") {
		t.Error("present substring must fail")
	}
}

func TestMatches(t *testing.T) {
	ctx, exec := begin(t)

	if !Matches(ctx, "pod-abc123", `^pod-[a-z0-9]+$`) {
		t.Error("matching pattern must pass")
	}
	if Matches(ctx, "svc-abc", `^pod-`) {
		t.Error("non-matching pattern must fail")
	}
	if Matches(ctx, "anything", `[invalid`) {
		t.Error("invalid pattern must fail")
	}
	e := lastEntry(t, exec)
	if !strings.Contains(e.Details, "invalid regex") {
		t.Errorf("got %q", e.Details)
	}
}

func TestEqual(t *testing.T) {
	ctx, exec := begin(t)

	type pair struct{ A, B int }
	if !Equal(ctx, "same", pair{1, 2}, pair{1, 2}) {
		t.Error("equal values must pass")
	}
	if Equal(ctx, "different", pair{1, 2}, pair{1, 3}) {
		t.Error("unequal values must fail")
	}
	e := lastEntry(t, exec)
	if !strings.HasPrefix(e.Details, "mismatch (-want +got):\n") {
		t.Errorf("failure details should carry the diff, got %q", e.Details)
	}
}

func TestJSONPath(t *testing.T) {
	doc := `{"status": {"phase": "Running", "replicas": 3}}`

	tests := []struct {
		name     string
		json     string
		path     string
		expected string
		want     bool
	}{
		{"string match", doc, "$.status.phase", "Running", true},
		{"number match", doc, "$.status.replicas", "3", true},
		{"value mismatch", doc, "$.status.phase", "Pending", false},
		{"missing key", doc, "$.status.missing", "x", false},
		{"invalid json", "{not json", "$.a", "x", false},
		{"root path", `"hello"`, "$", "hello", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := begin(t)
			if got := JSONPath(ctx, tt.json, tt.path, tt.expected); got != tt.want {
				t.Errorf("JSONPath(%q, %q, %q) = %v, want %v", tt.json, tt.path, tt.expected, got, tt.want)
			}
		})
	}
}

func TestCondition(t *testing.T) {
	ctx, exec := begin(t)

	env := map[string]any{"replicas": 3, "phase": "Running"}
	if !Condition(ctx, `replicas >= 2 && phase == "Running"`, env) {
		t.Error("true expression must pass")
	}
	if Condition(ctx, `replicas > 10`, env) {
		t.Error("false expression must fail")
	}
	if Condition(ctx, `replicas +`, env) {
		t.Error("compile error must fail")
	}
	e := lastEntry(t, exec)
	if !strings.Contains(e.Details, "compile condition") {
		t.Errorf("got %q", e.Details)
	}
}

func TestConditionNilEnv(t *testing.T) {
	ctx, _ := begin(t)
	if !Condition(ctx, `1 < 2`, nil) {
		t.Error("constant expression with no env must pass")
	}
}

func TestValidJSON(t *testing.T) {
	schema := []byte(`{
		"type": "object",
		"properties": {"name": {"type": "string"}, "count": {"type": "integer"}},
		"required": ["name"]
	}`)

	ctx, exec := begin(t)

	if !ValidJSON(ctx, "valid payload", `{"name": "a", "count": 2}`, schema) {
		t.Error("conforming instance must pass")
	}
	if ValidJSON(ctx, "missing required", `{"count": 2}`, schema) {
		t.Error("missing required field must fail")
	}
	if ValidJSON(ctx, "wrong type", []byte(`{"name": 7}`), schema) {
		t.Error("mismatched type must fail")
	}
	if ValidJSON(ctx, "broken instance", "{oops", schema) {
		t.Error("unparsable instance must fail")
	}
	if ValidJSON(ctx, "broken schema", `{}`, []byte("{nope")) {
		t.Error("unparsable schema must fail")
	}

	e := lastEntry(t, exec)
	if !strings.Contains(e.Details, "unmarshal schema") {
		t.Errorf("got %q", e.Details)
	}
}

func TestValidJSONGoValue(t *testing.T) {
	schema := []byte(`{"type": "object", "required": ["name"]}`)
	ctx, _ := begin(t)

	payload := struct {
		Name string `json:"name"`
	}{Name: "x"}
	if !ValidJSON(ctx, "go struct", payload, schema) {
		t.Error("Go values are round-tripped through JSON before validation")
	}
}
