package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var schemaJSON []byte

const schemaURL = "https://ultrafocus.local/config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func configSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// validateDocument checks a decoded TOML, YAML or JSON document against the
// embedded schema. Unknown keys and wrongly typed values are rejected here,
// before they can be silently dropped by the struct decoders.
func validateDocument(doc any) error {
	schema, err := configSchema()
	if err != nil {
		return err
	}

	instance, err := toJSONValue(doc)
	if err != nil {
		return err
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// toJSONValue normalizes decoder output (int64, map[string]any from TOML
// and YAML) to the value model the validator expects.
func toJSONValue(doc any) (any, error) {
	if doc == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return v, nil
}
