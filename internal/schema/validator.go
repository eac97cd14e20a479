// Package schema derives JSON Schemas from the persisted and published
// payload types and validates values against them.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"

	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/store"
)

// Validator holds one compiled schema per payload name.
type Validator struct {
	documents map[string][]byte
	compiled  map[string]*validator.Schema
}

// payloads lists every validated type by schema name.
var payloads = map[string]any{
	store.RecordSchema:              &store.Record{},
	models.EventMinuteScored:        &models.MinuteScored{},
	models.EventEvaluationCompleted: &models.EvaluationCompleted{},
}

// New reflects and compiles the schemas for all known payloads.
func New() (*Validator, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		Anonymous:                 true,
	}

	compiler := validator.NewCompiler()
	compiler.AssertFormat = true

	v := &Validator{
		documents: make(map[string][]byte, len(payloads)),
		compiled:  make(map[string]*validator.Schema, len(payloads)),
	}
	for name, typ := range payloads {
		s := r.Reflect(typ)
		s.Title = name

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s schema: %w", name, err)
		}
		url := name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add %s schema resource: %w", name, err)
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		v.documents[name] = data
		v.compiled[name] = compiled
	}
	return v, nil
}

// Names returns the known schema names in sorted order.
func (v *Validator) Names() []string {
	names := make([]string, 0, len(v.documents))
	for name := range v.documents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document returns the JSON Schema document for name.
func (v *Validator) Document(name string) ([]byte, bool) {
	doc, ok := v.documents[name]
	return doc, ok
}

// Validate checks value against the named schema. The value is marshaled to
// JSON first so it is validated exactly as it would be stored or sent.
func (v *Validator) Validate(name string, value any) error {
	s, ok := v.compiled[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s for validation: %w", name, err)
	}
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode %s for validation: %w", name, err)
	}

	if err := s.Validate(doc); err != nil {
		if validationErr, ok := err.(*validator.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return fmt.Errorf("%s schema validation failed:\n%s", name, strings.Join(messages, "\n"))
		}
		return fmt.Errorf("%s schema validation failed: %w", name, err)
	}
	return nil
}

// collectErrors flattens a validation error tree into one line per cause.
func collectErrors(err *validator.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
