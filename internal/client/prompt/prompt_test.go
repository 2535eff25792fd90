package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestLine(t *testing.T) {
	p, out := newPrompter("  Grace  \n")

	got, err := p.Line("First name")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Grace" {
		t.Errorf("Line = %q; want %q", got, "Grace")
	}
	if out.String() != "First name: " {
		t.Errorf("prompt = %q", out.String())
	}

	if _, err := p.Line("Last name"); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v; want ErrClosed", err)
	}
}

func TestInt_RetriesUntilNumber(t *testing.T) {
	p, out := newPrompter("abc\n\n42\n")

	n, err := p.Int("Age")
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Errorf("Int = %d; want 42", n)
	}
	if c := strings.Count(out.String(), "please enter a number"); c != 2 {
		t.Errorf("retry hints = %d; want 2", c)
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "sure\n": false}
	for in, want := range cases {
		p, _ := newPrompter(in)
		got, err := p.Confirm("Accept terms")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Confirm(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestChoice(t *testing.T) {
	opts := []string{"donor", "hospital", "patient"}

	p, _ := newPrompter("\n")
	got, err := p.Choice("Role", opts, "donor")
	if err != nil || got != "donor" {
		t.Errorf("default = %q, %v; want donor", got, err)
	}

	p, out := newPrompter("admin\nHospital\n")
	got, err = p.Choice("Role", opts, "donor")
	if err != nil || got != "hospital" {
		t.Errorf("Choice = %q, %v; want hospital", got, err)
	}
	if !strings.Contains(out.String(), "please choose one of") {
		t.Errorf("missing retry hint in %q", out.String())
	}
}

func TestCode(t *testing.T) {
	cases := map[string]string{
		"123456\n":      "123456",
		"1234567890\n":  "123456",
		"12a45\n":       "1245",
		"1 2 3 4 5 6\n": "123456",
		"\n":            "",
		"abc\n987654\n": "987654",
		"abc\n\n":       "",
	}
	for in, want := range cases {
		p, _ := newPrompter(in)
		got, err := p.Code("Code")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Code(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestCode_RejectsLettersOnly(t *testing.T) {
	p, out := newPrompter("abc\n424242\n")
	got, err := p.Code("Code")
	if err != nil {
		t.Fatal(err)
	}
	if got != "424242" {
		t.Errorf("Code = %q; want 424242", got)
	}
	if !strings.Contains(out.String(), "made of digits") {
		t.Errorf("output %q does not explain the rejected input", out.String())
	}
}

func TestSecret_NonTerminalReadsLine(t *testing.T) {
	p, out := newPrompter("  hunter22 \n")
	got, err := p.Secret("Password")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hunter22" {
		t.Errorf("Secret = %q; want hunter22", got)
	}
	if out.String() != "Password: " {
		t.Errorf("output = %q", out.String())
	}
}
