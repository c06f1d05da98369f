// Package process runs external CLI tools in the foreground.
package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"mvdan.cc/sh/v3/shell"
)

// Runner executes commands synchronously.
type Runner interface {
	Run(ctx context.Context, argv []string) error
}

// Passthrough runs commands with the caller's stdio attached, like a shell
// would, so interactive output from the child is visible to the user.
type Passthrough struct {
	Dir    string
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewPassthrough creates a runner bound to dir using the process stdio.
func NewPassthrough(dir string) *Passthrough {
	return &Passthrough{
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts argv and waits for it to exit.
func (p *Passthrough) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.Dir
	cmd.Stdin = p.Stdin
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr

	if len(p.Env) > 0 {
		cmd.Env = os.Environ()
		for key, value := range p.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

// ParseCommand splits a command line using shell quoting rules. Parameter
// expansions are resolved from the process environment.
func ParseCommand(line string) ([]string, error) {
	parts, err := shell.Fields(line, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return parts, nil
}
