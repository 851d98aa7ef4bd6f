// Package llm defines the text-generation collaborator used by every
// judgment stage of the pipeline and an OpenAI-backed implementation.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the collaborator cannot be reached, errors,
// times out or returns no content.
var ErrUnavailable = errors.New("llm: collaborator unavailable")

// Request is a single prompt sent to the collaborator.
type Request struct {
	// Name identifies the call, e.g. "classify_commits". Structured calls use
	// it as the schema name, so it must match ^[a-zA-Z0-9_-]+$.
	Name   string
	System string
	User   string
}

// Client is the collaborator capability: given a prompt and a target shape,
// return a structured or free-text result, possibly failing.
type Client interface {
	// GenerateObject fills out, which must be a pointer to a struct, with a
	// response validated against the schema derived from out.
	GenerateObject(ctx context.Context, req Request, out any) error
	// GenerateText returns an unstructured response.
	GenerateText(ctx context.Context, req Request) (string, error)
}

// SchemaError reports a response that does not match the expected shape.
type SchemaError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("llm: %s response does not match schema: %v", e.Name, e.Err)
}

// Unwrap returns the underlying validation error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
