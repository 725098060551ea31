package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, cmd Command) ([]byte, error)

// ExecRunner runs cmd with os/exec. Failures carry the tool name, the exit
// error and the trimmed output, and are tagged ErrExternalTool. A context
// deadline is reported as ErrTimeout.
func ExecRunner(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //nolint:gosec
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	output, err := c.CombinedOutput()
	if err != nil {
		marker := ErrExternalTool
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = ErrTimeout
		}
		return output, fmt.Errorf("%w: %s: %w: %s", marker, cmd.Name, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

// Run executes cmd with runner, falling back to ExecRunner when runner is nil.
// An empty command name is a configuration error and nothing is run.
func Run(ctx context.Context, runner CommandRunner, cmd Command) ([]byte, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, Wrap(ErrConfiguration, "command", "run", "no executable configured", nil)
	}
	if runner == nil {
		runner = ExecRunner
	}
	return runner(ctx, cmd)
}
