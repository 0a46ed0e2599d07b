package appfinish

import "fmt"

// Error represents a failed finishing step with additional context and actionable guidance.
type Error struct {
	Op   string // Step that failed (e.g., "write qt.conf", "patch kernel.json")
	Path string // File the step was working on, if any
	Err  error  // Underlying error
	Help string // Actionable guidance for the user
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("appfinish: %s: %v", e.Op, e.Err)
	if e.Path != "" {
		msg = fmt.Sprintf("appfinish: %s %s: %v", e.Op, e.Path, e.Err)
	}
	if e.Help != "" {
		msg += "\n  hint: " + e.Help
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
