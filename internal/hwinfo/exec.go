package hwinfo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs external tools such as nvidia-smi
type CommandRunner interface {
	// LookPath reports whether name is installed
	LookPath(name string) (string, error)
	// Run executes name and returns its standard output
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host
type ExecRunner struct{}

// LookPath searches PATH for name
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes the command, returning stdout. On failure the error carries
// stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
