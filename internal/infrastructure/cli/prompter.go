package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvPassword supplies the password without prompting.
const EnvPassword = "BOFH_PASSWORD"

// TerminalReader is the part of x/term the prompter needs.
type TerminalReader interface {
	ReadPassword(fd int) ([]byte, error)
	IsTerminal(fd int) bool
}

type defaultTerminal struct{}

func (defaultTerminal) ReadPassword(fd int) ([]byte, error) { return term.ReadPassword(fd) }
func (defaultTerminal) IsTerminal(fd int) bool              { return term.IsTerminal(fd) }

// Prompter asks the operator for the password. It reads without echo from
// a terminal, or a single line from any other input.
type Prompter struct {
	in       *os.File
	reader   *bufio.Reader
	out      io.Writer
	terminal TerminalReader
	getenv   func(string) string
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in *os.File, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &Prompter{
		in:       in,
		reader:   bufio.NewReader(in),
		out:      out,
		terminal: defaultTerminal{},
		getenv:   os.Getenv,
	}
}

// Password returns the password for user.
func (p *Prompter) Password(user string) (string, error) {
	if pw := p.getenv(EnvPassword); pw != "" {
		return pw, nil
	}
	fmt.Fprintf(p.out, "Password for %s: ", user)
	fd := int(p.in.Fd())
	if p.terminal.IsTerminal(fd) {
		pw, err := p.terminal.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := p.reader.ReadString('\n')
	fmt.Fprintln(p.out)
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
