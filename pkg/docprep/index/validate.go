package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cognicore/docprep/pkg/docprep/internalerr"
)

// Validator checks normalized entries against the required-key schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// schemaDefinition requires every RequiredKeys member as a string and
// allows any additional metadata.
func schemaDefinition() map[string]any {
	props := make(map[string]any, len(RequiredKeys))
	for _, k := range RequiredKeys {
		props[k] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             RequiredKeys,
		"additionalProperties": map[string]any{"type": "string"},
	}
}

// NewValidator compiles the entry schema.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaDefinition()))
	if err != nil {
		return nil, fmt.Errorf("compile index schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns nil when e carries every required key, or an error
// wrapping internalerr.ErrSchema naming all missing keys.
func (v *Validator) Validate(e Entry) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(e.Map()))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var missing, other []string
	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				missing = append(missing, prop)
				continue
			}
		}
		other = append(other, desc.String())
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		return fmt.Errorf("missing keys %s: %w", strings.Join(missing, ", "), internalerr.ErrSchema)
	}
	return fmt.Errorf("%s: %w", strings.Join(other, "; "), internalerr.ErrSchema)
}

// Missing returns the required keys e lacks, in schema order. It is the
// schema-free counterpart of Validate, used for reporting.
func Missing(e Entry) []string {
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := e.Get(k); !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
