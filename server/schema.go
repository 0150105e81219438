package server

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const transferSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"from": {"type": "string", "enum": ["source", "destination"]},
		"to": {"type": "string", "enum": ["source", "destination"]},
		"points": {
			"type": "array",
			"items": {
				"type": "array",
				"items": {"type": "integer"},
				"minItems": 3,
				"maxItems": 3
			}
		}
	},
	"required": ["points"]
}`

const exportSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"volume": {"type": "string", "enum": ["source", "destination"]},
		"dir": {"type": "string"},
		"prefix": {"type": "string", "pattern": "^[^/\\\\]*$"}
	}
}`

var (
	transferSchema = jsonschema.MustCompileString("transfer.json", transferSchemaJSON)
	exportSchema   = jsonschema.MustCompileString("export.json", exportSchemaJSON)
)

// decodeValidated checks a JSON request body against a schema and then decodes
// it into v.
func decodeValidated(sch *jsonschema.Schema, body []byte, v interface{}) error {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("malformed JSON request: %v", err)
	}
	if err := sch.Validate(raw); err != nil {
		return fmt.Errorf("invalid request: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unable to decode request: %v", err)
	}
	return nil
}
