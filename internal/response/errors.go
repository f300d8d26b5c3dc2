package response

import "fmt"

// Violation is one structural mismatch between a decoded value and its
// declared model.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports every violation found in one validation pass over
// a decoded response. It is the only error class expected in steady-state
// operation and never corrupts the compiled model.
type ValidationError struct {
	Operation  string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("response for %s failed validation: %s: %s",
			e.Operation, e.Violations[0].Path, e.Violations[0].Message)
	}
	return fmt.Sprintf("response for %s failed validation with %d violations",
		e.Operation, len(e.Violations))
}

// ConfigError denotes a defect in the handler's configuration, such as a
// contract naming a decoder that was never registered. It is fatal, not a
// per-request condition.
type ConfigError struct {
	Operation string
	Message   string
}

func (e *ConfigError) Error() string { return e.Message }
