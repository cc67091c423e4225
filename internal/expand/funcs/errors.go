package funcs

import "errors"

// Errors returned by built-in functions. All of them abort the expansion call.
var (
	// ErrDivisionByZero indicates @expr(a / 0).
	ErrDivisionByZero = errors.New("division by zero")

	// ErrOperandRange indicates an @expr operand does not fit in an int64.
	ErrOperandRange = errors.New("operand out of range")

	// ErrOverflow indicates an @expr result does not fit in an int64.
	ErrOverflow = errors.New("integer overflow")

	// ErrInvalidFormat indicates a malformed @timestamp format pattern.
	ErrInvalidFormat = errors.New("invalid date format")

	// ErrInvalidLocale indicates an @timestamp locale that does not parse.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrUnknownFunction indicates a function name missing from the registry.
	ErrUnknownFunction = errors.New("unknown function")
)
