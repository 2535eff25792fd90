// Package prompt reads line-oriented answers for the interactive commands.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/donorlink/internal/client/otp"
)

// ErrClosed is returned when input ends before an answer is read.
var ErrClosed = errors.New("input closed")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	// tty is the descriptor of in when it is a terminal, -1 otherwise.
	tty int
}

// New builds a Prompter. When in is a terminal, Secret reads without echo.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{scanner: bufio.NewScanner(in), out: out, tty: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = int(f.Fd())
	}
	return p
}

// Secret prints label and reads an answer without echoing it when input is
// a terminal. Other inputs are read like Line.
func (p *Prompter) Secret(label string) (string, error) {
	if p.tty < 0 {
		return p.Line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.tty)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Default is like Line but returns def for an empty answer.
func (p *Prompter) Default(label, def string) (string, error) {
	s, err := p.Line(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// Int asks until the answer is an integer.
func (p *Prompter) Int(label string) (int, error) {
	for {
		s, err := p.Line(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, nil
		}
		fmt.Fprintln(p.out, "please enter a number")
	}
}

// Confirm asks a yes/no question. Anything but y or yes is no.
func (p *Prompter) Confirm(label string) (bool, error) {
	s, err := p.Line(label + " (y/N)")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Choice asks for one of options, returning def on an empty answer.
func (p *Prompter) Choice(label string, options []string, def string) (string, error) {
	for {
		s, err := p.Default(fmt.Sprintf("%s (%s)", label, strings.Join(options, "/")), def)
		if err != nil {
			return "", err
		}
		for _, o := range options {
			if strings.EqualFold(s, o) {
				return o, nil
			}
		}
		fmt.Fprintf(p.out, "please choose one of: %s\n", strings.Join(options, ", "))
	}
}

// Code reads a one-time code through the segmented widget. A complete code
// is taken as a paste; otherwise characters are typed cell by cell, and
// non-digits are dropped the way the widget drops them. Only an empty line
// yields ""; a line with no digits at all is asked again.
func (p *Prompter) Code(label string) (string, error) {
	for {
		s, err := p.Line(label)
		if err != nil {
			return "", err
		}
		if s == "" {
			return "", nil
		}
		var w otp.Widget
		if w.Paste(s) {
			return w.Value(), nil
		}
		for _, r := range s {
			if w.Filled() {
				break
			}
			w.Input(w.Focus(), string(r))
		}
		if v := w.Value(); v != "" {
			return v, nil
		}
		fmt.Fprintln(p.out, "the code is made of digits, please try again")
	}
}
