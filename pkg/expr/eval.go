package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Result is a successful evaluation of a postfix sequence.
type Result struct {
	Value    float64
	Rendered string // postfix tokens joined by spaces
}

// Formatted returns Value rendered by FormatNumber.
func (r *Result) Formatted() string {
	return FormatNumber(r.Value)
}

// Evaluate runs a postfix token sequence against a fresh operand stack.
func Evaluate(postfix []Token) (*Result, error) {
	stack := newValueStack()
	var rendered strings.Builder

	for i, tok := range postfix {
		if i > 0 {
			rendered.WriteByte(' ')
		}
		rendered.WriteString(tok.Value)

		if tok.Type == TokenNumber {
			stack.push(tok.FloatVal)
			continue
		}

		if stack.len() < 2 {
			return nil, types.NewInsufficientOperands(tok.Pos)
		}
		rhs := stack.pop()
		lhs := stack.pop()

		v, err := apply(tok, lhs, rhs)
		if err != nil {
			return nil, err
		}
		stack.push(v)
	}

	if stack.len() != 1 {
		return nil, types.NewMalformedExpression(stack.len())
	}
	return &Result{Value: stack.pop(), Rendered: rendered.String()}, nil
}

// apply computes lhs op rhs. Division and remainder by zero follow IEEE 754.
func apply(op Token, lhs, rhs float64) (float64, error) {
	switch op.Type {
	case TokenPlus:
		return lhs + rhs, nil
	case TokenMinus:
		return lhs - rhs, nil
	case TokenStar:
		return lhs * rhs, nil
	case TokenSlash:
		return lhs / rhs, nil
	case TokenPercent:
		return math.Mod(lhs, rhs), nil
	case TokenPow:
		return math.Pow(lhs, rhs), nil
	default:
		return 0, fmt.Errorf("unsupported postfix token %s (%q) at position %d", op.Type, op.Value, op.Pos)
	}
}

// FormatNumber renders v with at most four fractional digits, dropping
// trailing zeros and a bare trailing point.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
