package funcs

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"fortio.org/safecast"

	"github.com/dshills/macrostorm/internal/expand"
)

var exprPattern = regexp.MustCompile(`@expr\((\d+) ?([+/*-]) ?(\d+)\)`)

// Expr expands @expr(a op b) to the integer result of a op b.
type Expr struct{}

// NewExpr creates an Expr.
func NewExpr() *Expr {
	return &Expr{}
}

// Name implements expand.Function.
func (f *Expr) Name() string { return "expr" }

// Pattern implements expand.Function.
func (f *Expr) Pattern() *regexp.Regexp { return exprPattern }

// Evaluate implements expand.Function.
func (f *Expr) Evaluate(_ context.Context, m expand.Match) (string, error) {
	a, err := parseOperand(m.Group(1))
	if err != nil {
		return "", err
	}
	b, err := parseOperand(m.Group(3))
	if err != nil {
		return "", err
	}
	v, err := apply(m.Group(2), a, b)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(v, 10), nil
}

func parseOperand(s string) (int64, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrOperandRange, s)
	}
	v, err := safecast.Conv[int64](u)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrOperandRange, s)
	}
	return v, nil
}

// apply evaluates a op b for non-negative a and b.
func apply(op string, a, b int64) (int64, error) {
	switch op {
	case "+":
		if a > math.MaxInt64-b {
			return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
		}
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		if a != 0 && b > math.MaxInt64/a {
			return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, a, b)
		}
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", op)
	}
}
