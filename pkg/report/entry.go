// Package report defines the execution log tree recorded during a single
// test execution: steps, soft assertions and attachments, plus the
// aggregation rules that derive pass/fail state from the tree.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind discriminates the closed set of log entry variants.
type Kind string

const (
	KindStep       Kind = "step"
	KindAssert     Kind = "assert"
	KindAttachment Kind = "attachment"
)

// ContentType classifies attachment payloads for rendering.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentJSON  ContentType = "json"
	ContentImage ContentType = "image"
)

// Entry is one node of the execution log tree. Exactly one variant is
// populated, selected by Kind:
//
//   - step: Message, Passed (computed at scope close), Children
//   - assert: Label, Passed, Details (failing asserts always carry Details)
//   - attachment: Label, ContentType, Data
//
// An entry belongs to exactly one parent container for its lifetime; the
// tree is append-only while recording and frozen once the owning execution
// finalizes.
type Entry struct {
	Kind        Kind
	Message     string
	Passed      bool
	Children    []*Entry
	Label       string
	Details     string
	ContentType ContentType
	Data        string
}

// NewStep creates an open step node. Passed starts true and is recomputed
// from Children when the step scope closes.
func NewStep(message string) *Entry {
	return &Entry{Kind: KindStep, Message: message, Passed: true}
}

// NewAssertion creates an assertion leaf. Failing assertions with empty
// details get the caller-facing placeholder filled in by the recorder, not
// here.
func NewAssertion(label string, passed bool, details string) *Entry {
	return &Entry{Kind: KindAssert, Label: label, Passed: passed, Details: details}
}

// NewAttachment creates an attachment leaf. Attachments never participate
// in pass/fail aggregation.
func NewAttachment(label string, ct ContentType, data string) *Entry {
	return &Entry{Kind: KindAttachment, Label: label, ContentType: ct, Data: data}
}

type stepJSON struct {
	Type     Kind     `json:"type"`
	Message  string   `json:"message"`
	Passed   bool     `json:"passed"`
	Children []*Entry `json:"children"`
}

type assertJSON struct {
	Type    Kind   `json:"type"`
	Label   string `json:"label"`
	Passed  bool   `json:"passed"`
	Details string `json:"details,omitempty"`
}

type attachmentJSON struct {
	Type        Kind        `json:"type"`
	Label       string      `json:"label"`
	ContentType ContentType `json:"content_type"`
	Data        string      `json:"data"`
}

// MarshalJSON emits only the fields that belong to the entry's variant.
func (e *Entry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindStep:
		children := e.Children
		if children == nil {
			children = []*Entry{}
		}
		return json.Marshal(stepJSON{Type: e.Kind, Message: e.Message, Passed: e.Passed, Children: children})
	case KindAssert:
		return json.Marshal(assertJSON{Type: e.Kind, Label: e.Label, Passed: e.Passed, Details: e.Details})
	case KindAttachment:
		return json.Marshal(attachmentJSON{Type: e.Kind, Label: e.Label, ContentType: e.ContentType, Data: e.Data})
	default:
		return nil, fmt.Errorf("unknown log entry kind %q", e.Kind)
	}
}

// UnmarshalJSON reads a serialized entry back, validating the kind tag.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        Kind        `json:"type"`
		Message     string      `json:"message"`
		Passed      bool        `json:"passed"`
		Children    []*Entry    `json:"children"`
		Label       string      `json:"label"`
		Details     string      `json:"details"`
		ContentType ContentType `json:"content_type"`
		Data        string      `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case KindStep, KindAssert, KindAttachment:
	default:
		return fmt.Errorf("unknown log entry kind %q", raw.Type)
	}
	*e = Entry{
		Kind:        raw.Type,
		Message:     raw.Message,
		Passed:      raw.Passed,
		Children:    raw.Children,
		Label:       raw.Label,
		Details:     raw.Details,
		ContentType: raw.ContentType,
		Data:        raw.Data,
	}
	return nil
}

// HasFailures reports whether the tree contains a failing assertion or a
// failing step at any depth. Attachments are ignored. The walk is a pure
// function of structure, so it is well-defined on partial trees too.
func HasFailures(entries []*Entry) bool {
	for _, e := range entries {
		switch e.Kind {
		case KindStep:
			if !e.Passed || HasFailures(e.Children) {
				return true
			}
		case KindAssert:
			if !e.Passed {
				return true
			}
		case KindAttachment:
			// never affects pass/fail
		}
	}
	return false
}

// FailureLines walks the tree depth-first and returns one line per failing
// entry, indented two spaces per nesting level.
func FailureLines(entries []*Entry) []string {
	var lines []string
	appendFailureLines(entries, 0, &lines)
	return lines
}

func appendFailureLines(entries []*Entry, depth int, lines *[]string) {
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		switch e.Kind {
		case KindStep:
			if !e.Passed || HasFailures(e.Children) {
				*lines = append(*lines, fmt.Sprintf("%sStep failed: %s", indent, e.Message))
				appendFailureLines(e.Children, depth+1, lines)
			}
		case KindAssert:
			if !e.Passed {
				line := fmt.Sprintf("%sAssert failed: %s", indent, e.Label)
				if e.Details != "" {
					line = fmt.Sprintf("%s (%s)", line, e.Details)
				}
				*lines = append(*lines, line)
			}
		case KindAttachment:
		}
	}
}
