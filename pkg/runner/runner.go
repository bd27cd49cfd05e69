// Package runner executes registered test cases, owning one execution
// context per case and applying soft-assertion reclassification to each raw
// verdict before assembling the run report.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
	"github.com/ormasoftchile/qago/pkg/trace"
	"github.com/ormasoftchile/qago/pkg/verdict"
)

// Case is a registered test case. Markers mirror the runner-facing
// metadata: a display title, component labels, and skip/expected-failure
// reasons.
type Case struct {
	Name       string
	Title      string
	Components []string
	Body       func(ctx context.Context) error

	SkipReason  string // non-empty: never executed, reported skipped
	XFailReason string // non-empty: expected to fail
}

// Options configures a Runner.
type Options struct {
	Title     string
	Parallel  int           // max cases in flight; <=1 means sequential
	Timeout   time.Duration // per-case budget; 0 means none
	TracePath string        // optional JSONL event trail
	Logger    *zap.Logger
}

// Runner executes cases and assembles a report document.
type Runner struct {
	opts  Options
	cases []Case
	log   *zap.Logger
}

// New creates a runner.
func New(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{opts: opts, log: log}
}

// Add registers a case. Cases run in registration order (subject to
// parallelism).
func (r *Runner) Add(c Case) {
	r.cases = append(r.cases, c)
}

// Run executes all registered cases and returns the report document.
// Each case owns an independent execution context, so parallel cases never
// see each other's log tree.
func (r *Runner) Run(ctx context.Context) (*report.Document, error) {
	runID := uuid.NewString()
	start := time.Now()

	var tw *trace.Writer
	if r.opts.TracePath != "" {
		var err error
		tw, err = trace.NewFileWriter(r.opts.TracePath, runID)
		if err != nil {
			return nil, fmt.Errorf("open trace: %w", err)
		}
		defer tw.Close()
		tw.EmitRunStart(r.opts.Title, len(r.cases))
	}

	results := make([]report.CaseReport, len(r.cases))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.opts.Parallel
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, c := range r.cases {
		g.Go(func() error {
			results[i] = r.runCase(gctx, c, tw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &report.Document{
		RunID:     runID,
		Title:     r.opts.Title,
		StartedAt: start.UTC().Format(time.RFC3339),
		EndedAt:   time.Now().UTC().Format(time.RFC3339),
		Cases:     results,
	}
	for _, cr := range results {
		doc.Summary.Count(cr.Verdict)
	}

	if tw != nil {
		tw.EmitRunComplete(map[string]any{
			"total":   doc.Summary.Total,
			"passed":  doc.Summary.Passed,
			"failed":  doc.Summary.Failed,
			"skipped": doc.Summary.Skipped,
			"xfailed": doc.Summary.XFailed,
			"xpassed": doc.Summary.XPassed,
		}, time.Since(start))
	}
	r.log.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("total", doc.Summary.Total),
		zap.Int("failed", doc.Summary.Failed),
	)
	return doc, nil
}

func (r *Runner) runCase(ctx context.Context, c Case, tw *trace.Writer) report.CaseReport {
	start := time.Now()
	cr := report.CaseReport{
		Name:       c.Name,
		Title:      c.Title,
		Components: c.Components,
		Log:        []*report.Entry{},
	}

	if c.SkipReason != "" {
		cr.Verdict = string(verdict.Skipped)
		cr.Summary = []string{"skipped: " + c.SkipReason}
		cr.DurationMs = time.Since(start).Milliseconds()
		return cr
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	execCtx, exec := execution.Begin(ctx)
	if tw != nil {
		tw.EmitCaseStart(c.Name, exec.ID)
	}
	r.log.Debug("case start", zap.String("case", c.Name), zap.String("execution_id", exec.ID))

	err := runBody(execCtx, c.Body)
	root := exec.Finalize()

	if diag := exec.Diag(); diag != (execution.Diagnostics{}) {
		r.log.Warn("recording inconsistencies detected",
			zap.String("case", c.Name),
			zap.Int("stack_underflows", diag.StackUnderflows),
			zap.Int("unclosed_scopes", diag.UnclosedScopes),
			zap.Int("late_writes", diag.LateWrites),
		)
		if tw != nil {
			tw.EmitDiagnostic(c.Name, map[string]any{
				"stack_underflows": diag.StackUnderflows,
				"unclosed_scopes":  diag.UnclosedScopes,
				"late_writes":      diag.LateWrites,
			})
		}
	}

	raw := rawResult(c, err)
	corrected, summary := verdict.Reclassify(root, raw)

	cr.Verdict = string(corrected.Verdict)
	cr.Summary = summary
	cr.Log = root
	if corrected.Err != nil {
		cr.Error = corrected.Err.Error()
	}
	cr.DurationMs = time.Since(start).Milliseconds()

	if tw != nil {
		tw.EmitCaseComplete(c.Name, cr.Verdict, time.Since(start), corrected.Verdict != raw.Verdict)
	}
	return cr
}

// rawResult maps the body outcome and the expected-failure marker onto the
// runner's raw verdict.
func rawResult(c Case, err error) verdict.Result {
	if err == nil {
		if c.XFailReason != "" {
			return verdict.Result{Verdict: verdict.UnexpectedPass}
		}
		return verdict.Result{Verdict: verdict.Passed}
	}
	if c.XFailReason != "" {
		return verdict.Result{Verdict: verdict.ExpectedFailure, Err: err}
	}
	return verdict.Result{Verdict: verdict.Failed, Err: err}
}

// runBody executes the case body, converting panics into hard failures so
// one case cannot take down the run.
func runBody(ctx context.Context, body func(ctx context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return body(ctx)
}
