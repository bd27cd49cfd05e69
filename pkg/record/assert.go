package record

import (
	"context"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

// DefaultFailureDetails is recorded when a failing soft assertion carries no
// caller-supplied details, so every failure has a renderable explanation.
const DefaultFailureDetails = "Condition evaluated to False"

// SoftAssert records condition as a soft assertion and returns it.
// Execution is never halted, whatever the outcome; details is optional and
// only retained on failure.
func SoftAssert(ctx context.Context, condition bool, label string, details ...string) bool {
	d := ""
	if len(details) > 0 {
		d = details[0]
	}
	recordAssert(ctx, condition, label, d)
	return condition
}

func recordAssert(ctx context.Context, passed bool, label, details string) {
	entry := report.NewAssertion(label, passed, "")
	if !passed {
		if details == "" {
			details = DefaultFailureDetails
		}
		entry.Details = details
	}
	execution.FromContext(ctx).AddEntry(entry)
}
