package expr

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Lexer tokenizes an infix expression string.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input and returns all tokens in source order.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}
	return l.tokens, nil
}

// next returns the token starting at the current position.
func (l *Lexer) next() (Token, error) {
	ch := l.input[l.pos]

	if isNumberPart(ch) {
		return l.readNumber()
	}

	if ch == 'P' {
		return l.readPow()
	}

	switch ch {
	case '+':
		l.pos++
		return Token{Type: TokenPlus, Value: "+", Pos: l.pos - 1}, nil
	case '-':
		l.pos++
		return Token{Type: TokenMinus, Value: "-", Pos: l.pos - 1}, nil
	case '*':
		l.pos++
		return Token{Type: TokenStar, Value: "*", Pos: l.pos - 1}, nil
	case '/':
		l.pos++
		return Token{Type: TokenSlash, Value: "/", Pos: l.pos - 1}, nil
	case '%':
		l.pos++
		return Token{Type: TokenPercent, Value: "%", Pos: l.pos - 1}, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Value: "(", Pos: l.pos - 1}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Value: ")", Pos: l.pos - 1}, nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, types.NewUnknownOperator(string(r), l.pos)
}

// readNumber consumes the maximal run of digits and dots.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isNumberPart(l.input[l.pos]) {
		l.pos++
	}

	raw := l.input[start:l.pos]
	f, err := strconv.ParseFloat(raw, 64)
	// Out-of-range runs saturate to +Inf like any other float overflow.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Token{}, types.NewMalformedNumber(raw, start)
	}
	return Token{Type: TokenNumber, Value: raw, FloatVal: f, Pos: start}, nil
}

// readPow reads the POW operator. Anything else starting with 'P' is rejected,
// naming at most three characters of it.
func (l *Lexer) readPow() (Token, error) {
	start := l.pos
	if strings.HasPrefix(l.input[start:], "POW") {
		l.pos += 3
		return Token{Type: TokenPow, Value: "POW", Pos: start}, nil
	}

	end := start
	for n := 0; n < 3 && end < len(l.input); n++ {
		_, size := utf8.DecodeRuneInString(l.input[end:])
		end += size
	}
	return Token{}, types.NewUnknownOperator(l.input[start:end], start)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isNumberPart(ch byte) bool {
	return (ch >= '0' && ch <= '9') || ch == '.'
}
