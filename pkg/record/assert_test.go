package record

import (
	"context"
	"testing"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

func TestSoftAssertReturnsCondition(t *testing.T) {
	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	if !SoftAssert(ctx, true, "yes") {
		t.Error("true condition must return true")
	}
	if SoftAssert(ctx, false, "no") {
		t.Error("false condition must return false")
	}
	if len(exec.Root) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(exec.Root))
	}
}

func TestSoftAssertNeverHalts(t *testing.T) {
	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	for i := 0; i < 5; i++ {
		SoftAssert(ctx, false, "always fails")
	}
	if len(exec.Root) != 5 {
		t.Errorf("all 5 assertions must be recorded, got %d", len(exec.Root))
	}
}

func TestSoftAssertDefaultDetails(t *testing.T) {
	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	SoftAssert(ctx, false, "bare failure")
	entry := exec.Root[0]
	if entry.Kind != report.KindAssert {
		t.Fatalf("expected assertion entry, got %q", entry.Kind)
	}
	if entry.Details != "Condition evaluated to False" {
		t.Errorf("got details %q", entry.Details)
	}
}

func TestSoftAssertDetailsOnlyOnFailure(t *testing.T) {
	ctx, exec := execution.Begin(context.Background())
	defer exec.Finalize()

	SoftAssert(ctx, true, "passing", "should be dropped")
	SoftAssert(ctx, false, "failing", "kept")

	if exec.Root[0].Details != "" {
		t.Errorf("passing assertion must not keep details, got %q", exec.Root[0].Details)
	}
	if exec.Root[1].Details != "kept" {
		t.Errorf("failing assertion must keep details, got %q", exec.Root[1].Details)
	}
}

func TestSoftAssertWithoutExecution(t *testing.T) {
	// no execution bound: must not panic and still return the condition
	if !SoftAssert(context.Background(), true, "detached") {
		t.Error("return value must mirror the condition")
	}
}
