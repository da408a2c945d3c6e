package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidPayload marks a response body that does not match the todo contract.
var ErrInvalidPayload = errors.New("invalid payload")

const todoSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "task", "completed"],
  "properties": {
    "id": {"type": "integer"},
    "task": {"type": "string"},
    "completed": {"type": "boolean"}
  }
}`

const listSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": ["array", "null"],
  "items": {"$ref": "todo.json"}
}`

const schemaBase = "https://tada.invalid/schema/"

var (
	todoSchema *jsonschema.Schema
	listSchema *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaBase+"todo.json", bytes.NewReader([]byte(todoSchemaJSON))); err != nil {
		panic(err)
	}
	if err := compiler.AddResource(schemaBase+"todos.json", bytes.NewReader([]byte(listSchemaJSON))); err != nil {
		panic(err)
	}
	todoSchema = compiler.MustCompile(schemaBase + "todo.json")
	listSchema = compiler.MustCompile(schemaBase + "todos.json")
}

// validatePayload checks a raw response body against schema.
func validatePayload(schema *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
