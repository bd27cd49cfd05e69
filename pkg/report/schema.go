package report

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// JSONSchema describes the tagged-variant serialization of Entry, which the
// reflector cannot derive from the struct because MarshalJSON emits a
// different shape per kind.
func (Entry) JSONSchema() *jsonschema.Schema {
	entryRef := &jsonschema.Schema{Ref: "#/$defs/Entry"}

	stepProps := jsonschema.NewProperties()
	stepProps.Set("type", &jsonschema.Schema{Enum: []any{string(KindStep)}})
	stepProps.Set("message", &jsonschema.Schema{Type: "string"})
	stepProps.Set("passed", &jsonschema.Schema{Type: "boolean"})
	stepProps.Set("children", &jsonschema.Schema{Type: "array", Items: entryRef})
	step := &jsonschema.Schema{
		Type:       "object",
		Properties: stepProps,
		Required:   []string{"type", "message", "passed", "children"},
	}

	assertProps := jsonschema.NewProperties()
	assertProps.Set("type", &jsonschema.Schema{Enum: []any{string(KindAssert)}})
	assertProps.Set("label", &jsonschema.Schema{Type: "string"})
	assertProps.Set("passed", &jsonschema.Schema{Type: "boolean"})
	assertProps.Set("details", &jsonschema.Schema{Type: "string"})
	assert := &jsonschema.Schema{
		Type:       "object",
		Properties: assertProps,
		Required:   []string{"type", "label", "passed"},
	}

	attProps := jsonschema.NewProperties()
	attProps.Set("type", &jsonschema.Schema{Enum: []any{string(KindAttachment)}})
	attProps.Set("label", &jsonschema.Schema{Type: "string"})
	attProps.Set("content_type", &jsonschema.Schema{
		Enum: []any{string(ContentText), string(ContentJSON), string(ContentImage)},
	})
	attProps.Set("data", &jsonschema.Schema{Type: "string"})
	attachment := &jsonschema.Schema{
		Type:       "object",
		Properties: attProps,
		Required:   []string{"type", "label", "content_type", "data"},
	}

	return &jsonschema.Schema{
		Title: "Log entry",
		OneOf: []*jsonschema.Schema{step, assert, attachment},
	}
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from the
// Go Document struct using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Document{})
	s.ID = "https://github.com/ormasoftchile/qago/schemas/report-v0.json"
	s.Title = "QA Execution Report v0"
	s.Description = "Schema for qago run report JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// ValidateDocument checks a report document (as raw JSON) against the
// generated schema. Returns nil when the document conforms.
func ValidateDocument(docJSON []byte) error {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("report-v0.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("report-v0.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return fmt.Errorf("parse report document: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("report document does not conform: %w", err)
	}
	return nil
}
