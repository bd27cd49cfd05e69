package assertions

import (
	"context"
	"encoding/json"
	"fmt"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/qago/pkg/record"
)

// ValidJSON validates an instance against a JSON Schema and records the
// outcome as a soft assertion. The instance may be raw JSON ([]byte or
// string) or any Go value, which is round-tripped through encoding/json
// before validation. Schema problems record a failing assertion, not an
// error.
func ValidJSON(ctx context.Context, label string, instance any, schemaJSON []byte) bool {
	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("unmarshal schema: %v", err))
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("instance-schema.json", schemaDoc); err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("add schema resource: %v", err))
	}
	sch, err := c.Compile("instance-schema.json")
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("compile schema: %v", err))
	}

	doc, err := normalizeInstance(instance)
	if err != nil {
		return record.SoftAssert(ctx, false, label, fmt.Sprintf("prepare instance: %v", err))
	}
	if err := sch.Validate(doc); err != nil {
		return record.SoftAssert(ctx, false, label, truncate(err.Error(), 500))
	}
	return record.SoftAssert(ctx, true, label)
}

// normalizeInstance converts the caller's value into the decoded-JSON form
// the validator expects.
func normalizeInstance(instance any) (interface{}, error) {
	var raw []byte
	switch v := instance.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal instance: %w", err)
		}
		raw = data
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse instance JSON: %w", err)
	}
	return doc, nil
}
