// Package execx provides a testable abstraction for external command and
// binary lookups.
package execx

import (
	"context"
	"os/exec"
)

// Runner defines an interface for executing external commands and locating
// binaries.
type Runner interface {
	LookPath(file string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealRunner implements Runner using os/exec.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// LookPath searches for an executable in the directories named by PATH.
func (r *RealRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// CombinedOutput executes a command and returns its combined stdout and
// stderr output.
func (r *RealRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
