// Package expr implements the infix calculator pipeline: a tokenizer, a
// shunting-yard converter from infix to postfix, and a postfix evaluator.
package expr

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenNumber TokenType = iota // decimal literal

	// Arithmetic
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %
	TokenPow     // POW

	// Grouping
	TokenLParen // (
	TokenRParen // )
)

// Token represents a single lexical token.
type Token struct {
	Type     TokenType
	Value    string  // raw source text
	FloatVal float64 // parsed value (for TokenNumber)
	Pos      int     // position in source
}

// String returns the token's source text, which is also its postfix rendering.
func (t Token) String() string {
	return t.Value
}

// IsOperator reports whether the token is a binary operator, POW included.
func (t Token) IsOperator() bool {
	switch t.Type {
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenPow:
		return true
	}
	return false
}

// Precedence returns the binding strength of the token; higher binds tighter.
// Tokens that are not operators have precedence 0.
func (t Token) Precedence() int {
	switch t.Type {
	case TokenPlus, TokenMinus:
		return 1
	case TokenStar, TokenSlash, TokenPercent:
		return 2
	case TokenPow:
		return 3
	default:
		return 0
	}
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "NUMBER"
	case TokenPlus:
		return "PLUS"
	case TokenMinus:
		return "MINUS"
	case TokenStar:
		return "STAR"
	case TokenSlash:
		return "SLASH"
	case TokenPercent:
		return "PERCENT"
	case TokenPow:
		return "POW"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// Render joins the source text of tokens with single spaces.
func Render(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Value
	}
	return strings.Join(parts, " ")
}
