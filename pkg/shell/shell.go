// Package shell implements the interactive read-eval loop of rpncalc.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
	"github.com/lemonberrylabs/rpncalc/pkg/calc"
	"github.com/lemonberrylabs/rpncalc/pkg/store"
)

const (
	Greeting = "Please enter infix equation"
	Farewell = "Thank you for using our RPN Calculator"
	Quit     = "quit"
)

// Shell reads one expression per line and prints its postfix form and value.
type Shell struct {
	in      io.Reader
	out     io.Writer
	history store.Backend // optional
	errOut  *color.Color
	postfix *color.Color
}

// New creates a shell. history may be nil.
func New(in io.Reader, out io.Writer, history store.Backend) *Shell {
	return &Shell{
		in:      in,
		out:     out,
		history: history,
		errOut:  color.New(color.FgRed),
		postfix: color.New(color.FgCyan),
	}
}

// Run loops until the exact line "quit" or end of input. A rejected
// expression is reported and the loop continues.
func (s *Shell) Run() error {
	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprintln(s.out, Greeting)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == Quit {
			break
		}
		s.eval(line)
	}
	fmt.Fprintln(s.out, Farewell)

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

func (s *Shell) eval(line string) {
	out, err := calc.Run(line)
	if s.history != nil {
		if _, herr := s.history.Record(store.NewEvaluation(line, out, err, store.SourceShell)); herr != nil {
			log.Printf("Warning: could not record evaluation: %v", herr)
		}
	}

	if err != nil {
		s.errOut.Fprintln(s.out, err.Error())
		return
	}
	s.postfix.Fprintln(s.out, out.Postfix)
	fmt.Fprintln(s.out, out.Result)
}
