package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// browserOpener opens URLs with the desktop's default handler
type browserOpener struct{}

func (browserOpener) Open(_ context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	// The handler outlives us; reap it in the background.
	go cmd.Wait()
	return nil
}

// printOpener writes the URL instead of opening it
type printOpener struct {
	out io.Writer
}

func (p printOpener) Open(ctx context.Context, url string) error {
	_, err := fmt.Fprintln(p.out, url)
	return err
}
