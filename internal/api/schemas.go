package api

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schemas holds the compiled request validators.
type Schemas struct {
	RegisterElement  *jsonschema.Schema
	RegisterResource *jsonschema.Schema
	Resolve          *jsonschema.Schema
}

// CompileSchemas compiles the embedded request schemas. Compilation happens
// once at daemon startup; a failure here is a packaging defect.
func CompileSchemas() (*Schemas, error) {
	compiler := jsonschema.NewCompiler()
	names := []string{
		"schemas/register_element.json",
		"schemas/register_resource.json",
		"schemas/resolve.json",
	}
	for _, name := range names {
		raw, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := compiler.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	schemas := &Schemas{}
	targets := []struct {
		name string
		dst  **jsonschema.Schema
	}{
		{"schemas/register_element.json", &schemas.RegisterElement},
		{"schemas/register_resource.json", &schemas.RegisterResource},
		{"schemas/resolve.json", &schemas.Resolve},
	}
	for _, target := range targets {
		compiled, err := compiler.Compile(target.name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", target.name, err)
		}
		*target.dst = compiled
	}
	return schemas, nil
}

// Validate checks a raw JSON payload against a compiled schema and returns a
// validation error suitable for an API error response.
func Validate(schema *jsonschema.Schema, payload []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
