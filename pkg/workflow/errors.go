package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrProducerInvocation indicates a template producer failed; the whole
	// assembly is abandoned.
	ErrProducerInvocation = errors.New("template producer failed")

	// ErrSchemaViolation indicates a declaration or template does not fit the
	// workflow resource schema.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrEncoding indicates a value cannot be represented in the output format.
	ErrEncoding = errors.New("cannot encode value")

	// ErrInvalidDeclaration indicates a declaration could not be built.
	ErrInvalidDeclaration = errors.New("invalid declaration")
)

// ProducerError reports the member whose producer failed.
type ProducerError struct {
	Member string
	Err    error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("%s: member %q: %v", ErrProducerInvocation, e.Member, e.Err)
}

// Unwrap exposes both ErrProducerInvocation and the producer's own error.
func (e *ProducerError) Unwrap() []error { return []error{ErrProducerInvocation, e.Err} }

// SchemaError reports a field that violates the resource schema.
type SchemaError struct {
	Path string
	Msg  string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaViolation, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSchemaViolation, e.Path, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaViolation }

// EncodingError reports a value the encoder cannot represent.
type EncodingError struct {
	Path string
	Msg  string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrEncoding, e.Msg)
	}
	return fmt.Sprintf("%s at %s: %s", ErrEncoding, e.Path, e.Msg)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDeclaration, fmt.Sprintf(format, args...))
}
