package asl

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileInputSchema compiles a Workflow's InputSchema (a raw JSON Schema
// document) into a *jsonschema.Schema, grounded on goa-ai's
// registry/service.go compile-then-validate pattern: unmarshal the schema
// bytes into an any, register it as an in-memory resource, then compile.
func compileInputSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal InputSchema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("workflow-input.json", doc); err != nil {
		return nil, fmt.Errorf("add InputSchema resource: %w", err)
	}
	schema, err := c.Compile("workflow-input.json")
	if err != nil {
		return nil, fmt.Errorf("compile InputSchema: %w", err)
	}
	return schema, nil
}

// validateAgainstInputSchema checks input against wf.InputSchema when set,
// the entry point wired from Engine.Run (§4.9/§9's named InputSchema gate on
// every run, not just a static structural check).
func validateAgainstInputSchema(wf *Workflow, input interface{}) error {
	if len(wf.InputSchema) == 0 {
		return nil
	}
	schema, err := compileInputSchema(wf.InputSchema)
	if err != nil {
		return err
	}
	// jsonschema validates decoded-JSON shapes (map[string]any, not our
	// Document alias), so round-trip through encoding/json first.
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal input for schema validation: %w", err)
	}
	var instance any
	if err := json.Unmarshal(b, &instance); err != nil {
		return fmt.Errorf("unmarshal input for schema validation: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("input does not satisfy InputSchema: %w", err)
	}
	return nil
}
