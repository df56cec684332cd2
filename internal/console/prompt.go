// Package console holds the interactive prompts and the colored output of the CLI.
package console

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

// ErrAborted is returned when the user ends input (Ctrl-C or Ctrl-D).
var ErrAborted = stderrors.New("input aborted")

// Prompter asks the user for input.
type Prompter interface {
	Input(label, placeholder string) (string, error)
	Select(label string, options []string) (string, error)
	Confirm(label string) (bool, error)
}

// LineReader reads one line after showing a prompt. *readline.Instance
// satisfies it.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// ReadlinePrompter implements Prompter on top of a LineReader.
type ReadlinePrompter struct {
	reader LineReader
	out    io.Writer
	// maxAttempts bounds re-prompting after invalid answers
	maxAttempts int
}

// NewReadlinePrompter opens a readline instance on the terminal.
// The caller must Close it.
func NewReadlinePrompter(out io.Writer) (*ReadlinePrompter, *readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdout:          out,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return NewPrompter(rl, out), rl, nil
}

// NewPrompter creates a prompter reading from reader and writing menus to out.
func NewPrompter(reader LineReader, out io.Writer) *ReadlinePrompter {
	return &ReadlinePrompter{reader: reader, out: out, maxAttempts: 3}
}

// Input reads a free-form value. The placeholder is shown as a hint.
func (p *ReadlinePrompter) Input(label, placeholder string) (string, error) {
	prompt := label
	if placeholder != "" {
		prompt += " (" + placeholder + ")"
	}
	line, err := p.readLine(prompt + ": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Select shows a numbered menu and returns the chosen option.
func (p *ReadlinePrompter) Select(label string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.NewError("select", errors.ErrInvalidInput).WithMessage("no options to choose from")
	}

	fmt.Fprintln(p.out, label)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		line, err := p.readLine(fmt.Sprintf("Enter a number [1-%d] or a name: ", len(options)))
		if err != nil {
			return "", err
		}
		choice, err := ParseSelection(line, options)
		if err == nil {
			return choice, nil
		}
		fmt.Fprintln(p.out, err.Error())
	}
	return "", errors.NewError("select", errors.ErrInvalidInput).WithMessage("no valid selection made")
}

// Confirm asks a yes/no question. Anything but an explicit yes is a no.
func (p *ReadlinePrompter) Confirm(label string) (bool, error) {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		line, err := p.readLine(label + " [y/N]: ")
		if err != nil {
			return false, err
		}
		answer, ok := ParseConfirm(line)
		if ok {
			return answer, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
	return false, nil
}

func (p *ReadlinePrompter) readLine(prompt string) (string, error) {
	p.reader.SetPrompt(prompt)
	line, err := p.reader.Readline()
	if err != nil {
		if stderrors.Is(err, readline.ErrInterrupt) || stderrors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return line, nil
}

// ParseSelection resolves input to one of options, either by exact name or
// by 1-based index. A name match wins, so numeric names stay selectable.
func ParseSelection(input string, options []string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty selection", errors.ErrInvalidInput)
	}
	for _, opt := range options {
		if opt == input {
			return opt, nil
		}
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(options) {
			return "", fmt.Errorf("%w: %d is out of range 1-%d", errors.ErrInvalidInput, n, len(options))
		}
		return options[n-1], nil
	}
	return "", fmt.Errorf("%w: %q is not one of the listed options", errors.ErrInvalidInput, input)
}

// ParseConfirm interprets a yes/no answer. An empty answer means no.
// ok is false when the answer is not recognized.
func ParseConfirm(input string) (answer, ok bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true, true
	case "", "n", "no":
		return false, true
	default:
		return false, false
	}
}

var _ LineReader = (*readline.Instance)(nil)
