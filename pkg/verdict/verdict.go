// Package verdict converts a runner's raw per-test result into a corrected
// one once recorded soft-assertion failures are taken into account.
package verdict

import (
	"github.com/ormasoftchile/qago/pkg/report"
)

// Verdict is the per-test outcome as the host runner sees it.
type Verdict string

const (
	Passed          Verdict = "passed"
	Failed          Verdict = "failed"
	Skipped         Verdict = "skipped"
	ExpectedFailure Verdict = "xfailed"
	UnexpectedPass  Verdict = "xpassed"
)

// Result is a raw or corrected per-test result. A non-nil Err means a hard,
// uncaught failure occurred, which is distinct from soft-assertion failure.
type Result struct {
	Verdict Verdict
	Err     error
}

// SummaryHeader opens every generated failure summary.
const SummaryHeader = "One or more assertions failed."

// Reclassify applies the soft-assertion policy to a finalized log tree.
//
// A hard failure, or a verdict that already reports failure or a skip,
// passes through unchanged: soft-assertion bookkeeping only overrides an
// otherwise-clean run. A clean run whose tree contains failures becomes
// failed, except that a run carrying expected-failure semantics becomes
// skipped, preserving the "expected to fail, and it sort-of did" intent
// without counting it as a real failure. The returned summary is empty
// unless the verdict was reclassified.
func Reclassify(root []*report.Entry, raw Result) (Result, []string) {
	if raw.Err != nil {
		return raw, nil
	}
	switch raw.Verdict {
	case Passed, ExpectedFailure, UnexpectedPass:
	default:
		return raw, nil
	}
	if !report.HasFailures(root) {
		return raw, nil
	}

	corrected := raw
	if raw.Verdict == Passed {
		corrected.Verdict = Failed
	} else {
		corrected.Verdict = Skipped
	}
	summary := append([]string{SummaryHeader}, report.FailureLines(root)...)
	return corrected, summary
}
