// Package errors provides standardized error handling for mediatagger.
// It defines the error kinds used across the tag store, viewer and extractor,
// plus helpers for consistent error creation, wrapping and inspection.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileOperationFailed
	InvalidOperation
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Store error kinds
	CorruptStore
	NotTagged
	// Media error kinds
	MediaDecodeFailed
	// Extraction error kinds
	CopyFailed
	// Database error kinds
	DatabaseOperationFailed
	InvalidInputData
)

var kindNames = map[ErrorKind]string{
	Unknown:                 "unknown",
	FileNotFound:            "file_not_found",
	FileAccessDenied:        "file_access_denied",
	InvalidPath:             "invalid_path",
	FileOperationFailed:     "file_operation_failed",
	InvalidOperation:        "invalid_operation",
	InvalidConfig:           "invalid_config",
	ConfigNotFound:          "config_not_found",
	CorruptStore:            "corrupt_store",
	NotTagged:               "not_tagged",
	MediaDecodeFailed:       "media_decode_failed",
	CopyFailed:              "copy_failed",
	DatabaseOperationFailed: "database_operation_failed",
	InvalidInputData:        "invalid_input_data",
}

// String returns the snake_case name of the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: kind},
		path:             path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	return withSubject(&e.ApplicationError, e.path)
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: kind},
		param:            param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	return withSubject(&e.ApplicationError, e.param)
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// StoreError is returned when a persisted store (tags or settings) cannot be
// read or written. A CorruptStore kind must be surfaced to the user; the store
// file is never reset in response to it.
type StoreError struct {
	ApplicationError
	path string
}

// NewStoreError creates a new store error
func NewStoreError(msg string, path string, kind ErrorKind, err error) *StoreError {
	return &StoreError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: kind},
		path:             path,
	}
}

// Error returns the store error message
func (e *StoreError) Error() string {
	return withSubject(&e.ApplicationError, e.path)
}

// Path returns the store file path
func (e *StoreError) Path() string {
	return e.path
}

// TagError is returned for tag mutations that do not apply to a path.
type TagError struct {
	ApplicationError
	path string
}

// NewTagError creates a new tag error
func NewTagError(msg string, path string, kind ErrorKind) *TagError {
	return &TagError{
		ApplicationError: ApplicationError{msg: msg, kind: kind},
		path:             path,
	}
}

// Error returns the tag error message
func (e *TagError) Error() string {
	return withSubject(&e.ApplicationError, e.path)
}

// Path returns the tagged path
func (e *TagError) Path() string {
	return e.path
}

// MediaError is returned when a media file cannot be rendered.
type MediaError struct {
	ApplicationError
	path string
}

// NewMediaError creates a new media error
func NewMediaError(msg string, path string, err error) *MediaError {
	return &MediaError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: MediaDecodeFailed},
		path:             path,
	}
}

// Error returns the media error message
func (e *MediaError) Error() string {
	return withSubject(&e.ApplicationError, e.path)
}

// Path returns the media file path
func (e *MediaError) Path() string {
	return e.path
}

// CopyError is a single failed copy during extraction.
type CopyError struct {
	ApplicationError
	src string
	dst string
}

// NewCopyError creates a new copy error
func NewCopyError(src, dst string, err error) *CopyError {
	return &CopyError{
		ApplicationError: ApplicationError{msg: "copy failed", err: err, kind: CopyFailed},
		src:              src,
		dst:              dst,
	}
}

// Error returns the copy error message
func (e *CopyError) Error() string {
	subject := e.src
	if e.dst != "" {
		subject = fmt.Sprintf("%s -> %s", e.src, e.dst)
	}
	return withSubject(&e.ApplicationError, subject)
}

// Source returns the file that failed to copy
func (e *CopyError) Source() string {
	return e.src
}

// Destination returns the intended copy destination
func (e *CopyError) Destination() string {
	return e.dst
}

// DatabaseError represents errors related to database operations
type DatabaseError struct {
	ApplicationError
	operation string
	context   map[string]interface{}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *DatabaseError {
	return &DatabaseError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: DatabaseOperationFailed},
		context:          make(map[string]interface{}),
	}
}

// WithOperation adds operation information to the database error
func (e *DatabaseError) WithOperation(operation string) *DatabaseError {
	e.operation = operation
	return e
}

// WithContext adds context information to the database error
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	e.context[key] = value
	return e
}

// Error returns the database error message
func (e *DatabaseError) Error() string {
	if e.operation != "" {
		return withSubject(&e.ApplicationError, "operation="+e.operation)
	}
	return e.ApplicationError.Error()
}

// Operation returns the database operation associated with the error
func (e *DatabaseError) Operation() string {
	return e.operation
}

// Context returns the context information associated with the error
func (e *DatabaseError) Context() map[string]interface{} {
	return e.context
}

func withSubject(e *ApplicationError, subject string) string {
	if subject == "" {
		return e.Error()
	}
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.msg, subject, e.err)
	}
	return fmt.Sprintf("%s: %s", e.msg, subject)
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{msg: msg, kind: Unknown}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{msg: fmt.Sprintf(format, args...), kind: Unknown}
}

// NewKind creates a new error of the given kind
func NewKind(kind ErrorKind, format string, args ...interface{}) error {
	return &ApplicationError{msg: fmt.Sprintf(format, args...), kind: kind}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: msg, err: err, kind: Unknown}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: fmt.Sprintf(format, args...), err: err, kind: Unknown}
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first application error in err's chain
// that carries a non-Unknown kind.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsKind reports whether err carries the given kind anywhere in its chain
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	return IsKind(err, FileNotFound)
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	return IsKind(err, InvalidConfig)
}

// IsInvalidOperation checks if the error rejects an operation in the current state
func IsInvalidOperation(err error) bool {
	return IsKind(err, InvalidOperation)
}

// IsCorruptStore checks if a persisted store failed to parse
func IsCorruptStore(err error) bool {
	return IsKind(err, CorruptStore)
}

// IsNotTagged checks if an untag was requested for an untagged path
func IsNotTagged(err error) bool {
	return IsKind(err, NotTagged)
}

// IsMediaDecode checks if a media file failed to render
func IsMediaDecode(err error) bool {
	return IsKind(err, MediaDecodeFailed)
}

// IsCopyError checks if the error is a single-file extraction failure
func IsCopyError(err error) bool {
	var copyErr *CopyError
	return errors.As(err, &copyErr)
}

// IsDatabaseError checks if the error is a database error
func IsDatabaseError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr)
}
