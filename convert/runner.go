package convert

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner abstracts external tool execution so converters can be tested
// without the tools installed.
type CommandRunner interface {
	// Run executes name with args and returns its stdout.
	// A non-zero exit status is returned as an error carrying stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Available reports whether the named tool can be found on PATH.
	Available(name string) bool
}

// ExecRunner is the production CommandRunner backed by os/exec.
type ExecRunner struct{}

var _ CommandRunner = (*ExecRunner)(nil)

// NewExecRunner creates a CommandRunner that executes real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrToolFailed, name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (r *ExecRunner) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
