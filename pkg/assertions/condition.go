package assertions

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/qago/pkg/record"
)

// Condition evaluates a boolean expr-lang expression against env and records
// the outcome as a soft assertion labeled with the expression itself.
// Compile and evaluation errors record a failing assertion carrying the
// error, never a hard failure.
func Condition(ctx context.Context, exprStr string, env map[string]any) bool {
	label := fmt.Sprintf("condition %s", exprStr)

	opts := []expr.Option{expr.AsBool()}
	if env != nil {
		opts = append(opts, expr.Env(env))
	}
	program, err := expr.Compile(exprStr, opts...)
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("compile condition %q: %v", exprStr, err))
	}
	output, err := expr.Run(program, env)
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("eval condition %q: %v", exprStr, err))
	}
	passed, ok := output.(bool)
	if !ok {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("condition %q did not return bool (got %T: %v)", exprStr, output, output))
	}
	return record.SoftAssert(ctx, passed, label)
}
