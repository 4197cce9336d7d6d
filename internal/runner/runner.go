package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Command describes one external tool invocation.
type Command struct {
	Name string
	Args []string
	// Env entries are appended to the inherited process environment,
	// e.g. "PGPASSWORD=...".
	Env []string
}

// Runner executes an opaque external command. The migration runner, the seed
// routine and every store's dump tool go through this interface so tests can
// substitute a fake without touching orchestration logic.
type Runner interface {
	// Run executes cmd and blocks until it exits or ctx is done. It returns
	// whatever the tool wrote to stderr; a non-zero exit is reported as an
	// error wrapping *exec.ExitError.
	Run(ctx context.Context, cmd Command) (stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdout = io.Discard

	var errBuf bytes.Buffer
	c.Stderr = &errBuf

	err := c.Run()
	return errBuf.Bytes(), err
}

// ExitCode extracts the process exit code from an error returned by Run.
// It reports 0 for nil and -1 when the command never ran.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
