// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_transformer

import "fmt"

// ProviderError is a failed vendor call: network failure, non-2xx
// response or a vendor-reported error. Adapters never retry; retry
// policy belongs to the caller.
type ProviderError struct {
	Provider string
	Stage    Stage
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Stage, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps a vendor failure with its provider and stage.
func NewProviderError(provider string, stage Stage, err error) *ProviderError {
	return &ProviderError{Provider: provider, Stage: stage, Err: err}
}

// ConfigurationError reports an unusable configuration: an unknown
// provider name, a missing required credential, or no generation target.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// TimeoutError reports an exhausted poll bound or an exceeded call
// deadline.
type TimeoutError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *TimeoutError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s timed out after %d attempts", e.Operation, e.Attempts)
	}
	return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
