package expand

import (
	"errors"
	"fmt"
)

// Errors returned by the engine itself.
var (
	// ErrNilFunction indicates a nil entry in the function list.
	ErrNilFunction = errors.New("nil function")

	// ErrNilPattern indicates a function returned a nil pattern.
	ErrNilPattern = errors.New("function has no pattern")
)

// EvalError reports a function evaluation that aborted an expansion.
type EvalError struct {
	Func   string // Function name (e.g., "expr", "timestamp")
	Token  string // The token being evaluated
	Offset int    // Byte offset of the token in the pass input
	Err    error  // Underlying error
}

func (e *EvalError) Error() string {
	if e == nil {
		return ""
	}
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Func, e.Err)
	}
	return fmt.Sprintf("%s: %s at offset %d: %v", e.Func, e.Token, e.Offset, e.Err)
}

func (e *EvalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
