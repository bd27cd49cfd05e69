package report

import (
	"encoding/json"
	"fmt"
	"os"
)

// CaseReport captures the outcome of a single test case execution: the
// corrected verdict, the generated failure summary, and the finalized log
// tree for richer rendering.
type CaseReport struct {
	Name       string   `json:"name"`
	Title      string   `json:"title,omitempty"`
	Components []string `json:"components,omitempty"`
	Verdict    string   `json:"verdict"` // passed, failed, skipped, xfailed, xpassed
	Error      string   `json:"error,omitempty"`
	Summary    []string `json:"summary,omitempty"`
	DurationMs int64    `json:"duration_ms"`
	Log        []*Entry `json:"log"`
}

// Summary counts case reports by corrected verdict.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	XFailed int `json:"xfailed"`
	XPassed int `json:"xpassed"`
}

// Document is the top-level report for one suite run. Written as JSON and
// consumed by downstream renderers.
type Document struct {
	RunID     string       `json:"run_id"`
	Title     string       `json:"title,omitempty"`
	StartedAt string       `json:"started_at"`
	EndedAt   string       `json:"ended_at"`
	Cases     []CaseReport `json:"cases"`
	Summary   Summary      `json:"summary"`
}

// Count tallies one corrected verdict into the summary.
func (s *Summary) Count(verdict string) {
	s.Total++
	switch verdict {
	case "passed":
		s.Passed++
	case "failed":
		s.Failed++
	case "skipped":
		s.Skipped++
	case "xfailed":
		s.XFailed++
	case "xpassed":
		s.XPassed++
	}
}

// WriteFile serializes the document as indented JSON.
func (d *Document) WriteFile(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadFile reads a report document written by WriteFile.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &d, nil
}
