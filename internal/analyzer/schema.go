package analyzer

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema accepts a flat JSON object whose values are scalars.
const recordSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": {
		"type": ["string", "number", "boolean", "null"]
	}
}`

func compileRecordSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString("property-record.json", recordSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}
	return schema, nil
}
