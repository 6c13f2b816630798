package gen

import (
	"errors"
	"fmt"
)

// Sentinels matched by the error types below through errors.Is.
var (
	ErrInvalidSchema    = errors.New("dirtygen: invalid schema")
	ErrMissingConfig    = errors.New("dirtygen: missing configuration")
	ErrGenerationFailed = errors.New("dirtygen: code generation failed")
)

// SchemaError reports an invalid entity or field of the entity file.
type SchemaError struct {
	Entity  string
	Field   string // empty for entity-level errors
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	where := e.Entity
	if e.Field != "" {
		where += "." + e.Field
	}
	msg := fmt.Sprintf("dirtygen: entity %s: %s", where, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error        { return e.Cause }
func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// NewSchemaError returns a SchemaError on entity, or on one of its fields
// when field is not empty.
func NewSchemaError(entity, field, message string, cause error) *SchemaError {
	return &SchemaError{Entity: entity, Field: field, Message: message, Cause: cause}
}

// ConfigError reports an invalid generator option.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("dirtygen: option %s=%v: %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("dirtygen: option %s: %s", e.Option, e.Message)
}

func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// NewConfigError returns a ConfigError. value is nil when the option is
// missing.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// GenerationError reports a failure to render, format or write a file.
type GenerationError struct {
	Phase   string // render, format or write
	File    string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("dirtygen: %s %s", e.Phase, e.File)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error        { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// NewGenerationError returns a GenerationError for file.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// IsSchemaError reports whether err holds a *SchemaError.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsConfigError reports whether err holds a *ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsGenerationError reports whether err holds a *GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
