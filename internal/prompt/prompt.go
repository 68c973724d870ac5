// Package prompt asks the operator yes/no questions on the controlling terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrNoTerminal is returned when there is nobody to ask.
var ErrNoTerminal = errors.New("no terminal available for confirmation")

// Confirmer asks a question and reports whether the answer was affirmative.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Console reads answers line by line from In and writes questions to Out.
type Console struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
	tty    *os.File // opened by NewConsole, released by Close
}

// NewConsole returns a Console bound to the operator's terminal.
// When stdin is a pipe (the installer was run as `curl ... | bash`), it opens
// /dev/tty instead so the question still reaches a person.
func NewConsole() (*Console, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return &Console{In: os.Stdin, Out: os.Stdout}, nil
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	return &Console{In: tty, Out: os.Stdout, tty: tty}, nil
}

// Close releases the terminal opened by NewConsole. It is a no-op for a
// Console reading from stdin or a caller-supplied reader.
func (c *Console) Close() error {
	if c.tty == nil {
		return nil
	}
	err := c.tty.Close()
	c.tty = nil
	return err
}

// Confirm prints question with a [y/N] marker. Anything other than y or yes is a no.
func (c *Console) Confirm(question string) (bool, error) {
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}
	fmt.Fprintf(c.Out, "%s [y/N]: ", question)

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("failed to read user input: %w", err)
		}
		if line == "" {
			return false, ErrNoTerminal
		}
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Unavailable is used when no terminal could be opened; every question fails.
type Unavailable struct {
	Err error
}

// Confirm always returns the stored error.
func (u Unavailable) Confirm(string) (bool, error) {
	if u.Err == nil {
		return false, ErrNoTerminal
	}
	return false, u.Err
}
