package types

import (
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrNoQueryInput     = errors.New("search query requires text or an embedding")
	ErrInvalidLimit     = errors.New("limit must be positive")
	ErrInvalidWeights   = errors.New("active weights must sum to a positive value")
	ErrInvalidEmbedding = fmt.Errorf("query embedding must have %d dimensions", EmbeddingDim)
)

// ConfigError reports an invalid search configuration. It is raised
// before any I/O and is always fatal for the request.
type ConfigError struct {
	Reason error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid search configuration: %v", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Reason }

// NewConfigError wraps a validation failure.
func NewConfigError(reason error) *ConfigError {
	return &ConfigError{Reason: reason}
}

// RetrievalError reports a failure in a mandatory pipeline stage (FTS,
// vector retrieval, or query embedding). It is fatal for the request.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s retrieval failed: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError wraps a mandatory-stage failure.
func NewRetrievalError(stage string, err error) *RetrievalError {
	return &RetrievalError{Stage: stage, Err: err}
}

// SoftSignalError reports a failure in an optional signal (graph
// scoring, citation lookup, expansion, rerank). Callers log it and
// degrade the signal to neutral instead of failing the request.
type SoftSignalError struct {
	Signal string
	Err    error
}

func (e *SoftSignalError) Error() string {
	return fmt.Sprintf("%s signal degraded: %v", e.Signal, e.Err)
}

func (e *SoftSignalError) Unwrap() error { return e.Err }

// NewSoftSignalError wraps an optional-signal failure.
func NewSoftSignalError(signal string, err error) *SoftSignalError {
	return &SoftSignalError{Signal: signal, Err: err}
}

// IsSoft reports whether err is a degradable signal failure.
func IsSoft(err error) bool {
	var soft *SoftSignalError
	return errors.As(err, &soft)
}
