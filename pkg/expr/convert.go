package expr

import "github.com/lemonberrylabs/rpncalc/pkg/types"

// ToPostfix reorders an infix token sequence into postfix order using the
// shunting-yard algorithm. The result never contains parenthesis tokens.
//
// POW is pushed without popping anything, which makes it right-associative:
// "2 POW 2 POW 3" becomes "2 2 3 POW POW". All other operators are
// left-associative.
func ToPostfix(tokens []Token) ([]Token, error) {
	out := make([]Token, 0, len(tokens))
	ops := newTokenStack()

	for _, tok := range tokens {
		switch {
		case tok.Type == TokenNumber:
			out = append(out, tok)

		// ')' is never pushed, even onto an empty stack.
		case tok.Type == TokenRParen:
			for !ops.empty() && ops.top().Type != TokenLParen {
				out = append(out, ops.pop())
			}
			if ops.empty() {
				return nil, types.NewMissingLeftParen(tok.Pos)
			}
			ops.pop() // discard '('

		case ops.empty() || tok.Type == TokenLParen || tok.Type == TokenPow:
			ops.push(tok)

		default:
			for !ops.empty() && ops.top().Precedence() >= tok.Precedence() {
				out = append(out, ops.pop())
			}
			ops.push(tok)
		}
	}

	for !ops.empty() {
		tok := ops.pop()
		if tok.Type == TokenLParen {
			return nil, types.NewMissingRightParen(tok.Pos)
		}
		out = append(out, tok)
	}
	return out, nil
}
