// Package types holds the error model shared by every stage of the
// calculator pipeline and by the surfaces that report its failures.
package types

import (
	"errors"
	"fmt"
)

// InvalidInputPrefix starts every message reported for a rejected expression.
const InvalidInputPrefix = "Not a valid input, "

// Stage tags. Exactly one is attached to every CalcError.
const (
	TagParseError      = "ParseError"
	TagConversionError = "ConversionError"
	TagEvalError       = "EvalError"
)

// Cause tags.
const (
	TagUnknownOperator      = "UnknownOperator"
	TagMalformedNumber      = "MalformedNumber"
	TagUnmatchedParenthesis = "UnmatchedParenthesis"
	TagInsufficientOperands = "InsufficientOperands"
	TagMalformedExpression  = "MalformedExpression"
)

// CalcError is a rejected expression: a human-readable cause plus the stage
// and cause tags callers switch on.
type CalcError struct {
	Message string
	Tags    []string
	Pos     int // byte offset in the source, -1 when not tied to a position
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	return InvalidInputPrefix + e.Message
}

// HasTag returns true if the error has the specified tag.
func (e *CalcError) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Stage returns the pipeline stage tag of the error.
func (e *CalcError) Stage() string {
	for _, t := range e.Tags {
		switch t {
		case TagParseError, TagConversionError, TagEvalError:
			return t
		}
	}
	return ""
}

// Cause returns the cause tag of the error, or "" if it has none.
func (e *CalcError) Cause() string {
	for _, t := range e.Tags {
		switch t {
		case TagParseError, TagConversionError, TagEvalError:
			continue
		default:
			return t
		}
	}
	return ""
}

// ToMap converts the error to a JSON-friendly map used by the API surfaces.
func (e *CalcError) ToMap() map[string]interface{} {
	tags := make([]interface{}, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = t
	}
	m := map[string]interface{}{
		"message": e.Error(),
		"tags":    tags,
	}
	if e.Pos >= 0 {
		m["position"] = e.Pos
	}
	return m
}

// AsCalcError unwraps err to a *CalcError if there is one in its chain.
func AsCalcError(err error) (*CalcError, bool) {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Common error constructors.

// NewUnknownOperator creates a ParseError for an unrecognized character or
// a malformed multi-character operator.
func NewUnknownOperator(text string, pos int) *CalcError {
	return &CalcError{
		Message: "Unknown Operator " + text,
		Tags:    []string{TagParseError, TagUnknownOperator},
		Pos:     pos,
	}
}

// NewMalformedNumber creates a ParseError for a digit run that is not a
// valid decimal number.
func NewMalformedNumber(text string, pos int) *CalcError {
	return &CalcError{
		Message: fmt.Sprintf("Malformed number %s", text),
		Tags:    []string{TagParseError, TagMalformedNumber},
		Pos:     pos,
	}
}

// NewMissingLeftParen creates a ConversionError for a ')' with no '(' on the stack.
func NewMissingLeftParen(pos int) *CalcError {
	return &CalcError{
		Message: "Missing left parenthesis '('",
		Tags:    []string{TagConversionError, TagUnmatchedParenthesis},
		Pos:     pos,
	}
}

// NewMissingRightParen creates a ConversionError for a '(' that is never closed.
func NewMissingRightParen(pos int) *CalcError {
	return &CalcError{
		Message: "Missing right parenthesis ')'",
		Tags:    []string{TagConversionError, TagUnmatchedParenthesis},
		Pos:     pos,
	}
}

// NewInsufficientOperands creates an EvalError for an operator applied to
// fewer than two values. pos is the operator's offset.
func NewInsufficientOperands(pos int) *CalcError {
	return &CalcError{
		Message: "Unable to pop 2 operands from stack",
		Tags:    []string{TagEvalError, TagInsufficientOperands},
		Pos:     pos,
	}
}

// NewMalformedExpression creates an EvalError for an evaluation that did not
// leave exactly one value on the stack.
func NewMalformedExpression(remaining int) *CalcError {
	msg := "Missing extra operator"
	if remaining == 0 {
		msg = "Missing operand, nothing to evaluate"
	}
	return &CalcError{
		Message: msg,
		Tags:    []string{TagEvalError, TagMalformedExpression},
		Pos:     -1,
	}
}
