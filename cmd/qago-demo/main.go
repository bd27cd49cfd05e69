// Command demo runs a small suite exercising steps, soft assertions and
// attachments, writes report.json, and prints the failure summary lines.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ormasoftchile/qago/pkg/assertions"
	"github.com/ormasoftchile/qago/pkg/config"
	"github.com/ormasoftchile/qago/pkg/record"
	"github.com/ormasoftchile/qago/pkg/runner"
)

func main() {
	cfg, err := config.Load("qago.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.Apply()

	r := runner.New(runner.Options{
		Title:    "demo suite",
		Parallel: cfg.Parallel,
	})

	r.Add(runner.Case{
		Name:  "pass_scenario",
		Title: "Pass Scenario",
		Body: func(ctx context.Context) error {
			_ = record.Step(ctx, "Step 1: Passing step", func(ctx context.Context) error {
				record.SoftAssert(ctx, true, "This assertion should pass")
				return nil
			})
			return record.Step(ctx, "Step 2: Another passing step", func(ctx context.Context) error {
				record.SoftAssert(ctx, 1+1 == 2, "Math works!", "1 + 1 == 2")
				return nil
			})
		},
	})

	r.Add(runner.Case{
		Name:  "mixed_scenario",
		Title: "Mixed Scenario",
		Body: func(ctx context.Context) error {
			_ = record.Step(ctx, "Step 1: Passing step", func(ctx context.Context) error {
				record.SoftAssert(ctx, true, "This assertion should pass")
				return nil
			})
			_ = record.Step(ctx, "Step 2: Failing step", func(ctx context.Context) error {
				record.SoftAssert(ctx, false, "This assertion should fail")
				return nil
			})
			return record.Step(ctx, "Step 3: Structured checks", func(ctx context.Context) error {
				assertions.Contains(ctx, "hello world", "world")
				assertions.Condition(ctx, "answer == 42", map[string]any{"answer": 42})
				return nil
			})
		},
	})

	r.Add(runner.Case{
		Name:        "xfail_scenario",
		Title:       "XFail Scenario",
		XFailReason: "expected to fail",
		Body: func(ctx context.Context) error {
			return record.Step(ctx, "Step 1: Failing step", func(ctx context.Context) error {
				record.SoftAssert(ctx, false, "This assertion should fail")
				return nil
			})
		},
	})

	r.Add(runner.Case{
		Name:       "skip_scenario",
		Title:      "Skip Scenario",
		SkipReason: "skipping for demonstration purposes",
		Body: func(ctx context.Context) error {
			return nil
		},
	})

	r.Add(runner.Case{
		Name:  "error_scenario",
		Title: "Error Scenario",
		Body: func(ctx context.Context) error {
			return errors.New("intentional error for demonstration purposes")
		},
	})

	r.Add(runner.Case{
		Name:  "attachment_scenario",
		Title: "Attachment Scenario",
		Body: func(ctx context.Context) error {
			record.Attach(ctx, "This is a sample text", "string")
			record.Attach(ctx, 12345, "integer")
			record.Attach(ctx, map[string]any{"key": "value", "number": 123}, "dictionary")
			record.Attach(ctx, []int{1, 2, 3, 4, 5}, "list")
			record.Attach(ctx, []byte("\x89PNG\r\n\x1a\n"), "image bytes")
			return nil
		},
	})

	doc, err := r.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
	if err := doc.WriteFile(cfg.ReportPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	for _, c := range doc.Cases {
		fmt.Printf("%s: %s\n", c.Name, c.Verdict)
		for _, line := range c.Summary {
			fmt.Printf("  %s\n", line)
		}
	}
	fmt.Printf("wrote %s\n", cfg.ReportPath)
}
