// Package assertions implements derived soft assertions built on the
// recording primitives: substring, regex, structural equality, JSON path,
// expression and JSON Schema checks. Each helper records one soft assertion
// in the active execution and returns its outcome without halting the test.
package assertions

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/ormasoftchile/qago/pkg/record"
)

// Contains checks that output contains the expected substring.
func Contains(ctx context.Context, output, expected string) bool {
	passed := strings.Contains(output, expected)
	label := fmt.Sprintf("output contains %q", expected)
	details := ""
	if !passed {
		details = fmt.Sprintf("got: %s", truncate(output, 200))
	}
	return record.SoftAssert(ctx, passed, label, details)
}

// NotContains checks that output does NOT contain the substring.
func NotContains(ctx context.Context, output, expected string) bool {
	passed := !strings.Contains(output, expected)
	label := fmt.Sprintf("output does not contain %q", expected)
	details := ""
	if !passed {
		details = fmt.Sprintf("got: %s", truncate(output, 200))
	}
	return record.SoftAssert(ctx, passed, label, details)
}

// Matches checks that output matches the regex pattern. An invalid pattern
// records a failing assertion rather than an error.
func Matches(ctx context.Context, output, pattern string) bool {
	label := fmt.Sprintf("output matches /%s/", pattern)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("invalid regex: %v", err))
	}
	passed := re.MatchString(output)
	details := ""
	if !passed {
		details = fmt.Sprintf("got: %s", truncate(output, 200))
	}
	return record.SoftAssert(ctx, passed, label, details)
}

// Equal checks structural equality of got and want, recording a go-cmp diff
// as the failure details.
func Equal(ctx context.Context, label string, got, want any, opts ...cmp.Option) bool {
	diff := cmp.Diff(want, got, opts...)
	if diff == "" {
		return record.SoftAssert(ctx, true, label)
	}
	return record.SoftAssert(ctx, false, label, "mismatch (-want +got):\n"+diff)
}

// JSONPath extracts a value at a dot-notation path ($.status.phase) from a
// JSON document and compares it to expected.
func JSONPath(ctx context.Context, jsonOutput, path, expected string) bool {
	label := fmt.Sprintf("json_path %s == %q", path, expected)

	var data interface{}
	if err := json.Unmarshal([]byte(jsonOutput), &data); err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("invalid JSON: %v", err))
	}

	actual, err := navigateJSONPath(data, path)
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("path %s: %v", path, err))
	}

	actualStr := fmt.Sprintf("%v", actual)
	passed := actualStr == expected
	details := ""
	if !passed {
		details = fmt.Sprintf("json_path %s = %q, want %q", path, actualStr, expected)
	}
	return record.SoftAssert(ctx, passed, label, details)
}

// navigateJSONPath navigates a simple JSON path ($.key1.key2).
func navigateJSONPath(data interface{}, path string) (interface{}, error) {
	path = strings.TrimPrefix(path, "$.")
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return data, nil
	}

	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected object at %q, got %T", part, current)
		}
		val, exists := m[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", part)
		}
		current = val
	}
	return current, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
