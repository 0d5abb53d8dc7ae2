package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// terminalConfirmer asks for a yes/no answer on the terminal
type terminalConfirmer struct {
	in  io.Reader
	out io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: in, out: out}
}

// Confirm prints the prompt and reads one line. Anything but y or yes declines.
func (c *terminalConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s %s ", color.New(color.FgYellow, color.Bold).Sprint(prompt), color.CyanString("[y/N]"))

	answer := make(chan string, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(c.in).ReadString('\n')
		if err != nil && err != io.EOF {
			errs <- err
			return
		}
		answer <- line
	}()

	select {
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	case err := <-errs:
		return false, fmt.Errorf("failed to read answer: %w", err)
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false, ctx.Err()
	}
}
