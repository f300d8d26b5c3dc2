package model

import "errors"

// ErrorCode categorizes build errors for clearer handling and messaging.
type ErrorCode string

const (
	MalformedSource   ErrorCode = "MalformedSource"
	DanglingReference ErrorCode = "DanglingReference"
	UnregisteredClass ErrorCode = "UnregisteredClass"
	NameCollision     ErrorCode = "NameCollision"
)

// BuildError is a structured build-time failure. Build errors are fatal and
// never retried; Document and Name carry enough context to point at the
// offending declaration.
type BuildError struct {
	Code     ErrorCode
	Message  string
	Document string // path or URL of the source document
	Name     string // offending model or operation name
	Cause    error
}

func (e *BuildError) Error() string { return e.Message }
func (e *BuildError) Unwrap() error { return e.Cause }

// IsCode reports whether err is a BuildError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == code
}
