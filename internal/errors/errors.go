// Package errors defines the typed error taxonomy used across the indexer:
// parse-level warnings that don't abort indexing, resolve errors that carry
// suggestions back to the caller, and storage errors that are fatal to the
// operation in progress. Modeled on the teacher's IndexingError/ParseError
// shape: each variant implements Unwrap so callers can use errors.Is/As.
package errors

import (
	"fmt"
	"time"

	"github.com/ozekimasaki/lazyload/internal/types"
)

// Kind classifies an error for logging and for the MCP "Error:"-prefixed
// text-block propagation spec.md §7 requires.
type Kind string

const (
	KindParse   Kind = "parse"
	KindFileTooLarge Kind = "file_too_large"
	KindResolve Kind = "resolve"
	KindStorage Kind = "storage"
	KindConfig  Kind = "config"
	KindGovernor Kind = "governor"
	KindInternal Kind = "internal"
)

// ParseError wraps a single file-level parse failure. Indexing continues
// after one of these; it is recorded as a warning on the file row.
type ParseError struct {
	Path       types.FileID
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

func NewParseError(path string, line, column int, token string, err error) *ParseError {
	return &ParseError{Path: path, Line: line, Column: column, Token: token, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near %q): %v", e.Path, e.Line, e.Column, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }
func (e *ParseError) Kind() Kind    { return KindParse }

// ResolveErrorType distinguishes the two path-resolver failure shapes.
type ResolveErrorType string

const (
	ResolveNotFound  ResolveErrorType = "not_found"
	ResolveAmbiguous ResolveErrorType = "ambiguous"
)

// ResolveError is returned by the path resolver when a user-supplied path
// can't be mapped to exactly one indexed file. It is not logged as an
// error; it is returned to the caller with suggestions.
type ResolveError struct {
	Type        ResolveErrorType
	Query       string
	Suggestions []string          // up to 5 relative paths
	NearbyFiles []string          // up to 15, only for not_found
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("path resolve %s for %q (%d suggestions)", e.Type, e.Query, len(e.Suggestions))
}

// StorageError is fatal to the operation in progress; it bubbles up to the
// tool layer without mutating persisted state.
type StorageError struct {
	Operation  string
	Underlying error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Operation: op, Underlying: err}
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Underlying) }
func (e *StorageError) Unwrap() error { return e.Underlying }
func (e *StorageError) Kind() Kind    { return KindStorage }

// ConfigError wraps a config validation failure with the offending field.
type ConfigError struct {
	Field      string
	Underlying error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config field %s invalid: %v", e.Field, e.Underlying) }
func (e *ConfigError) Unwrap() error { return e.Underlying }
func (e *ConfigError) Kind() Kind    { return KindConfig }

// GovernorFinalize is not an error in the conventional sense — it's a
// terminal response replacing the handler's output, per spec.md §4.10 and
// §7. It implements error so it can travel an error return path; the
// governor package itself returns its finalize message as a plain response
// string and does not use this type.
type GovernorFinalize struct {
	Message string
}

func (e *GovernorFinalize) Error() string { return e.Message }
