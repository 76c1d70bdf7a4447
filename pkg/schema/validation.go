package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// createSecretSchemaJSON is the JSON Schema for CreateSecretRequest validation.
// Embedded as a constant to avoid filesystem dependencies.
const createSecretSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://sealbox.dev/schemas/create-secret.json",
  "type": "object",
  "required": ["secret"],
  "properties": {
    "secret": {
      "type": "string",
      "minLength": 1
    },
    "passphrase": {
      "type": "string",
      "minLength": 1
    },
    "ttl_seconds": {
      "type": "integer",
      "minimum": 1
    }
  },
  "additionalProperties": false
}`

// RequestValidator validates inbound API payloads against their JSON Schemas.
// It is safe for concurrent use.
type RequestValidator struct {
	createSchema *jsonschema.Schema
}

// NewRequestValidator compiles the embedded schemas.
func NewRequestValidator() (*RequestValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(createSecretSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal create-secret schema: %w", err)
	}
	if err := c.AddResource("https://sealbox.dev/schemas/create-secret.json", doc); err != nil {
		return nil, fmt.Errorf("add create-secret schema resource: %w", err)
	}
	compiled, err := c.Compile("https://sealbox.dev/schemas/create-secret.json")
	if err != nil {
		return nil, fmt.Errorf("compile create-secret schema: %w", err)
	}

	return &RequestValidator{createSchema: compiled}, nil
}

// ValidateCreate checks a raw POST /secret body against the schema and,
// if valid, unmarshals it into a CreateSecretRequest.
func (v *RequestValidator) ValidateCreate(body []byte) (*CreateSecretRequest, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, NewError(ErrCodeValidation, "request body is not valid JSON").WithCause(err)
	}
	if err := v.createSchema.Validate(doc); err != nil {
		return nil, NewError(ErrCodeValidation, "invalid create-secret request").WithCause(err)
	}

	var req CreateSecretRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, NewError(ErrCodeValidation, "decode create-secret request").WithCause(err)
	}
	return &req, nil
}
