package cli

import "errors"

// ErrUsage marks failures caused by how the tool was invoked, as opposed
// to a compile that genuinely failed. main prints these without extra
// decoration.
var ErrUsage = errors.New("cli usage error")

// usageError carries the user-facing message and matches ErrUsage through
// errors.Is.
type usageError struct {
	msg string
}

func newUsageError(msg string) error { return usageError{msg: msg} }

func (e usageError) Error() string { return e.msg }

func (e usageError) Is(target error) bool { return target == ErrUsage }
