package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// errNoInput is returned when stdin closes before an answer is given.
var errNoInput = errors.New("no input provided")

// prompter asks the operator for values the flags did not supply.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// String prints label and returns the trimmed answer. Empty answers are
// asked again.
func (p *prompter) String(label string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return "", fmt.Errorf("reading input: %w", err)
			}
			return "", errNoInput
		}
		if answer := strings.TrimSpace(p.in.Text()); answer != "" {
			return answer, nil
		}
	}
}

// Int asks until the answer is a positive integer.
func (p *prompter) Int(label string) (int, error) {
	for {
		answer, err := p.String(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Fprintln(p.out, "Please enter a positive whole number.")
	}
}

// riderIDs asks how many riders to look up and then each ID in turn.
func (p *prompter) riderIDs() ([]string, error) {
	n, err := p.Int("How many rider IDs do you want to look up")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, n)
	for i := range n {
		id, err := p.String(fmt.Sprintf("Enter Rider ID %d", i+1))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// inputPath returns the path from args or the named flag, prompting when
// neither is set.
func inputPath(p *prompter, args []string, flagValue, label string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if flagValue != "" {
		return flagValue, nil
	}
	return p.String(label)
}
