package store

import (
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Sources of recorded evaluations.
const (
	SourceShell = "shell"
	SourceHTTP  = "http"
	SourceGRPC  = "grpc"
	SourceUI    = "ui"
)

// NewEvaluation builds a record from the result of calc.Run.
func NewEvaluation(input string, out *calc.Outcome, err error, source string) *Evaluation {
	ev := &Evaluation{
		Expression: input,
		Source:     source,
	}
	if err != nil {
		ev.State = EvaluationFailed
		ev.Error = &EvaluationError{Message: err.Error()}
		if ce, ok := types.AsCalcError(err); ok {
			ev.Error.Tags = append([]string(nil), ce.Tags...)
		}
		return ev
	}
	ev.State = EvaluationSucceeded
	ev.Postfix = out.Postfix
	ev.Result = out.Result
	ev.Value = out.Value
	return ev
}
