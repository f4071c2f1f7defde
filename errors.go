package imagegen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoImages is returned when a remote response contained no recognizable
// image URLs. It is fatal to the generation call and never retried.
var ErrNoImages = errors.New("response did not include any image URLs")

// UnknownModelError is returned when the requested model is absent from the
// registry. It carries the list of valid names for the error message.
type UnknownModelError struct {
	Model string
	Known []string
}

// Error returns the error message including all valid model names.
func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q - valid names are: %s", e.Model, strings.Join(e.Known, ", "))
}

// InvalidOptionError is returned for a malformed or disallowed input value.
// It carries the offending option name and a human-readable reason.
type InvalidOptionError struct {
	Option string
	Reason string
}

// Error returns the option name and reason.
func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Option, e.Reason)
}

// RemoteCallError wraps a transport-level failure from the remote service.
// The underlying message is passed through unmodified.
type RemoteCallError struct {
	Endpoint string
	Status   int // HTTP status code, 0 if not applicable
	Err      error
}

// Error returns the endpoint and the underlying failure.
func (e *RemoteCallError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("remote call to %s failed with status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("remote call to %s failed: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// MetadataWriteError reports a failed metadata embed. It is non-fatal: the
// image file itself is still considered successfully produced.
type MetadataWriteError struct {
	Path string
	Err  error
}

// Error returns the file path and the underlying failure.
func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("unable to update metadata for %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetadataWriteError) Unwrap() error {
	return e.Err
}

// IsUnknownModel reports whether err is an UnknownModelError.
func IsUnknownModel(err error) bool {
	var e *UnknownModelError
	return errors.As(err, &e)
}

// IsInvalidOption reports whether err is an InvalidOptionError.
func IsInvalidOption(err error) bool {
	var e *InvalidOptionError
	return errors.As(err, &e)
}

// invalidOption builds an InvalidOptionError with a formatted reason.
func invalidOption(option, format string, args ...any) *InvalidOptionError {
	return &InvalidOptionError{Option: option, Reason: fmt.Sprintf(format, args...)}
}
