package buildenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by a CommandResolver when no executable with the given name exists.
var ErrNotFound = errors.New("executable file not found in search path")

// A CommandResolver finds executables.
type CommandResolver interface {
	// LookPath returns the path of the executable called name, searching the
	// given directories in order. Names containing a path separator are
	// checked directly.
	LookPath(name string, path []string) (string, error)
}

// An Executor runs shell commands within an environment.
type Executor interface {
	Execute(ctx context.Context, env *Environment, command string) error
}

// PathResolver looks executables up on the file system.
type PathResolver struct{}

var _ CommandResolver = PathResolver{}

func (PathResolver) LookPath(name string, path []string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if err := findExecutable(name); err != nil {
			return "", &exec.Error{Name: name, Err: err}
		}
		return name, nil
	}

	for _, dir := range path {
		candidate := filepath.Join(dir, name)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", &exec.Error{Name: name, Err: ErrNotFound}
}

func findExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode(); mode.IsDir() || mode.Perm()&0o111 == 0 {
		return os.ErrPermission
	}

	return nil
}

// ShellExecutor runs commands with "sh -c", using the environment's
// execution environment and output writers.
type ShellExecutor struct{}

var _ Executor = ShellExecutor{}

var execCommandContext = exec.CommandContext

func (ShellExecutor) Execute(ctx context.Context, env *Environment, command string) error {
	cmd := execCommandContext(ctx, "sh", "-c", command)
	cmd.Env = env.Environ()
	cmd.Stdout = env.Stdout
	cmd.Stderr = env.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell: %w", err)
	}

	return nil
}
