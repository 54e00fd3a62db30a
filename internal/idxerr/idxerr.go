// Package idxerr provides the structured error kinds used across the
// index build, query, and maintenance paths.
package idxerr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure, used by the CLI layer to pick an
// exit code and by the maintenance orchestrator to decide whether to
// swallow an error.
type Kind string

const (
	// KindIgnorableConcurrent means a build lock was already held; the
	// caller should treat this as a silent no-op, not a failure.
	KindIgnorableConcurrent Kind = "ignorable_concurrent"

	// KindScan means the workspace scan, or loading its ignore ruleset,
	// failed as a whole; the build fails. Per-file read errors are logged
	// and skipped by the scanner and never carry this kind.
	KindScan Kind = "scan"

	// KindEmbedding means the embedding gateway failed to embed a chunk
	// or initialize a model; the build fails.
	KindEmbedding Kind = "embedding"

	// KindSerialization means a JSON or binary write failed before any
	// rename; the prior index is left untouched.
	KindSerialization Kind = "serialization"

	// KindIntegrityMismatch means verify found a checksum that does not
	// match the manifest.
	KindIntegrityMismatch Kind = "integrity_mismatch"

	// KindDimensionMismatch means a query vector's dimension does not
	// match the manifest's.
	KindDimensionMismatch Kind = "dimension_mismatch"

	// KindMissingIndex means an operation that requires a manifest found
	// none.
	KindMissingIndex Kind = "missing_index"

	// KindMaintenanceBackground tags an error raised from the background
	// maintenance orchestrator; callers there record it and move on.
	KindMaintenanceBackground Kind = "maintenance_background"
)

// Error is the structured error type returned by index operations. It
// wraps an underlying cause and tags it with a Kind so callers can
// decide exit codes without string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ExitCode maps a Kind to the process exit code the CLI should use.
func ExitCode(kind Kind) int {
	switch kind {
	case KindIgnorableConcurrent, KindMaintenanceBackground:
		return 0
	default:
		return 1
	}
}
