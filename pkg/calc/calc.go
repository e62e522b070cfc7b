// Package calc chains the tokenizer, converter and evaluator into a single
// call and memoizes outcomes for the servers.
package calc

import (
	"github.com/lemonberrylabs/rpncalc/pkg/expr"
)

// Outcome is a successfully evaluated expression.
type Outcome struct {
	Expression string
	Postfix    string
	Value      float64
	Result     string // Value formatted for display
}

// Run tokenizes, converts and evaluates input. Any returned error from the
// three stages is a *types.CalcError.
func Run(input string) (*Outcome, error) {
	postfix, err := Postfix(input)
	if err != nil {
		return nil, err
	}

	res, err := expr.Evaluate(postfix)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Expression: input,
		Postfix:    res.Rendered,
		Value:      res.Value,
		Result:     res.Formatted(),
	}, nil
}

// Postfix runs only the first two stages and returns the postfix tokens.
func Postfix(input string) ([]expr.Token, error) {
	tokens, err := expr.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return expr.ToPostfix(tokens)
}
