package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrSchemaMissing    = errors.New("schema not registered")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	ElementType domain.ElementType
	Issues      []ValidationIssue
	Cause       error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issueLocation(issue.Location)
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// AsFieldErrors converts issues into dotted field errors, for example
// "#/styling/color" becomes "metadata.styling.color".
func AsFieldErrors(prefix string, issues []ValidationIssue) []goerrors.FieldError {
	out := make([]goerrors.FieldError, 0, len(issues))
	for _, issue := range issues {
		field := strings.Trim(strings.TrimPrefix(issue.Location, "#"), "/")
		field = strings.ReplaceAll(field, "/", ".")
		switch {
		case prefix != "" && field != "":
			field = prefix + "." + field
		case field == "":
			field = prefix
		}
		out = append(out, goerrors.FieldError{Field: field, Message: issue.Message})
	}
	return out
}

// Registry holds compiled metadata schemas keyed by element type.
type Registry struct {
	mu       sync.RWMutex
	compiled map[domain.ElementType]*jsonschema.Schema
	sources  map[domain.ElementType]map[string]any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		compiled: make(map[domain.ElementType]*jsonschema.Schema),
		sources:  make(map[domain.ElementType]map[string]any),
	}
}

// NewDefaultRegistry returns a registry loaded with the built-in metadata
// schema of every element type.
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	for _, elementType := range domain.ElementTypes() {
		if err := registry.Register(elementType, MetadataSchema(elementType)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register compiles and stores schema for elementType, replacing any previous one.
func (r *Registry) Register(elementType domain.ElementType, schema map[string]any) error {
	if len(schema) == 0 {
		return fmt.Errorf("%w: %s: empty schema", ErrSchemaInvalid, elementType)
	}
	compiled, err := compileSchema(string(elementType), schema)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaInvalid, elementType, err)
	}
	r.mu.Lock()
	r.compiled[elementType] = compiled
	r.sources[elementType] = cloneMap(schema)
	r.mu.Unlock()
	return nil
}

// Schema returns a copy of the registered schema document.
func (r *Registry) Schema(elementType domain.ElementType) (map[string]any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.sources[elementType]
	if !ok {
		return nil, false
	}
	return cloneMap(schema), true
}

// Validate checks metadata against the schema registered for elementType.
func (r *Registry) Validate(elementType domain.ElementType, metadata map[string]any) error {
	r.mu.RLock()
	compiled, ok := r.compiled[elementType]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, elementType)
	}
	payload, err := normalizePayload(metadata)
	if err != nil {
		return &PayloadValidationError{ElementType: elementType, Cause: err, Issues: []ValidationIssue{{Message: err.Error()}}}
	}
	if err := compiled.Validate(payload); err != nil {
		return &PayloadValidationError{
			ElementType: elementType,
			Issues:      Issues(err),
			Cause:       err,
		}
	}
	return nil
}

// normalizePayload round-trips through JSON so Go numeric and slice types
// match what the validator expects.
func normalizePayload(metadata map[string]any) (any, error) {
	if metadata == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	url := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func issueLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "#"
	}
	if !strings.HasPrefix(location, "#") {
		return "#" + location
	}
	return location
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[key] = cloneMap(typed)
		case []any:
			out[key] = cloneSlice(typed)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneSlice(input []any) []any {
	if input == nil {
		return nil
	}
	out := make([]any, len(input))
	for i, value := range input {
		switch typed := value.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = value
		}
	}
	return out
}
