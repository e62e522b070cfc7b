package expr

import "github.com/edwingeng/deque"

// tokenStack is the converter's operator stack. A fresh one is built for
// every conversion.
type tokenStack struct {
	dq deque.Deque
}

func newTokenStack() *tokenStack {
	return &tokenStack{dq: deque.NewDeque()}
}

func (s *tokenStack) push(t Token) { s.dq.PushBack(t) }
func (s *tokenStack) pop() Token   { return s.dq.PopBack().(Token) }
func (s *tokenStack) top() Token   { return s.dq.Back().(Token) }
func (s *tokenStack) empty() bool  { return s.dq.Len() == 0 }

// valueStack is the evaluator's operand stack.
type valueStack struct {
	dq deque.Deque
}

func newValueStack() *valueStack {
	return &valueStack{dq: deque.NewDeque()}
}

func (s *valueStack) push(v float64) { s.dq.PushBack(v) }
func (s *valueStack) pop() float64   { return s.dq.PopBack().(float64) }
func (s *valueStack) len() int       { return s.dq.Len() }
