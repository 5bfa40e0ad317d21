// SPDX-License-Identifier: MIT
package spectrum

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these rather than comparing the
// concrete types returned by the pipeline stages.
var (
	ErrConfiguration   = errors.New("spectrum: configuration error")
	ErrDegenerateInput = errors.New("spectrum: degenerate input")
)

// ConfigurationError reports a malformed or inconsistent configuration, or an
// input that does not match the configuration (e.g. a buffer of the wrong
// length). These are caller-correctable and never retried.
type ConfigurationError struct {
	Field  string // Config field (yaml key) that exposed the problem.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrConfiguration).
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InputError reports a sample buffer that cannot be analysed, e.g. one that
// contains NaN or infinite samples. Silence is not an InputError.
type InputError struct {
	Index  int // First offending sample.
	Sample float32
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: non-finite sample %v at index %d", ErrDegenerateInput, e.Sample, e.Index)
}

// Unwrap allows errors.Is(err, ErrDegenerateInput).
func (e *InputError) Unwrap() error { return ErrDegenerateInput }
