package apperror

import "fmt"

// ValidationError marks user input the request handler should reject
// with a 400 instead of a 500.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigurationError indicates an invalid startup configuration. These
// are fatal: the application refuses to start.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Message)
}

func NewConfigurationError(key, message string) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: message}
}

// ModelCallError wraps a failed call to an LLM or embedding backend.
type ModelCallError struct {
	Provider string
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call to %s failed: %v", e.Provider, e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}

func NewModelCallError(provider string, err error) *ModelCallError {
	return &ModelCallError{Provider: provider, Err: err}
}
