package source

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Provider payload contracts. Responses are validated against these
// schemas before decoding so that a malformed upstream payload fails the
// adapter cleanly instead of leaking zero-valued records downstream.

const rentcastValueSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["price"],
	"properties": {
		"price": {"type": "number", "exclusiveMinimum": 0},
		"priceRangeLow": {"type": "number"},
		"priceRangeHigh": {"type": "number"},
		"comparables": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["price"],
				"properties": {
					"price": {"type": "number", "exclusiveMinimum": 0},
					"bedrooms": {"type": "integer", "minimum": 0},
					"bathrooms": {"type": "number", "minimum": 0},
					"squareFootage": {"type": "number", "minimum": 0},
					"yearBuilt": {"type": "integer"},
					"removedDate": {"type": ["string", "null"]},
					"distance": {"type": "number", "minimum": 0}
				}
			}
		},
		"history": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["year", "value"],
				"properties": {
					"year": {"type": "integer"},
					"value": {"type": "number", "exclusiveMinimum": 0}
				}
			}
		}
	}
}`

const attomSnapshotSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["sales"],
	"properties": {
		"avm": {
			"type": "object",
			"properties": {
				"value": {"type": "number", "exclusiveMinimum": 0},
				"confidenceScore": {"type": "number", "minimum": 0, "maximum": 100}
			}
		},
		"sales": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["saleAmount"],
				"properties": {
					"saleAmount": {"type": "number", "exclusiveMinimum": 0},
					"beds": {"type": "integer", "minimum": 0},
					"bathsTotal": {"type": "number", "minimum": 0},
					"universalSize": {"type": "number", "minimum": 0},
					"yearBuilt": {"type": "integer"},
					"saleDate": {"type": ["string", "null"]},
					"distance": {"type": "number", "minimum": 0}
				}
			}
		}
	}
}`

const estimatorSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["estimated_value", "comparables"],
	"properties": {
		"estimated_value": {"type": "number", "exclusiveMinimum": 0},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"comparables": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["price"],
				"properties": {
					"price": {"type": "number", "exclusiveMinimum": 0},
					"beds": {"type": "integer", "minimum": 0},
					"baths": {"type": "number", "minimum": 0},
					"square_feet": {"type": "number", "minimum": 0},
					"condition": {"type": "string", "enum": ["REMODELED", "UNREMODELED", "UNKNOWN"]}
				}
			}
		}
	}
}`

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	for name, raw := range map[string]string{
		"rentcast/value":  rentcastValueSchema,
		"attom/snapshot":  attomSnapshotSchema,
		"estimator/value": estimatorSchema,
	} {
		compiledSchemas[name] = jsonschema.MustCompileString(name+".json", raw)
	}
}

// validatePayload checks a raw provider response body against the named
// contract before it is decoded into wire structs.
func validatePayload(schemaKey string, body []byte) error {
	schema, ok := compiledSchemas[schemaKey]
	if !ok {
		return fmt.Errorf("schema %q not registered", schemaKey)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("response body is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("response failed schema validation: %w", err)
	}
	return nil
}
