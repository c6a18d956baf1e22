package buildenv_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/armbecross/pkg/buildenv"
)

func joinList(entries ...string) string {
	return strings.Join(entries, string(os.PathListSeparator))
}

func TestEnvironment_PrependPath(t *testing.T) {
	type test struct {
		name   string
		path   string
		dir    string
		expect []string
	}

	tests := []test{
		{
			name:   "Empty",
			dir:    "/opt/bin",
			expect: []string{"/opt/bin"},
		},
		{
			name:   "Existing",
			path:   joinList("/usr/bin", "/bin"),
			dir:    "/opt/bin",
			expect: []string{"/opt/bin", "/usr/bin", "/bin"},
		},
		{
			name:   "AlreadyFirst",
			path:   joinList("/opt/bin", "/usr/bin"),
			dir:    "/opt/bin",
			expect: []string{"/opt/bin", "/usr/bin"},
		},
		{
			name:   "PresentLater",
			path:   joinList("/usr/bin", "/opt/bin"),
			dir:    "/opt/bin",
			expect: []string{"/opt/bin", "/usr/bin", "/opt/bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := buildenv.New()
			env.Setenv(buildenv.PathKey, tt.path)
			env.PrependPath(buildenv.PathKey, tt.dir)

			require.Equal(t, tt.expect, env.SearchPath())
		})
	}
}

func TestEnvironment_Vars(t *testing.T) {
	env := buildenv.New()

	_, ok := env.Lookup(buildenv.CC)
	require.False(t, ok)

	env.Set(buildenv.CC, "gcc")
	env.Set(buildenv.CXX, "g++")
	env.Replace(map[buildenv.Var]string{buildenv.CC: "clang", buildenv.Linker: "ld.lld"})

	require.Equal(t, "clang", env.Get(buildenv.CC))
	require.Equal(t, "g++", env.Get(buildenv.CXX))
	require.Equal(t, "ld.lld", env.Get(buildenv.Linker))

	vars := env.Vars()
	vars[buildenv.CC] = "tcc"
	require.Equal(t, "clang", env.Get(buildenv.CC), "Vars must return a copy")
}

func TestEnvironment_Environ(t *testing.T) {
	env := buildenv.New()
	env.Setenv("PATH", "/bin")
	env.Setenv("KERNELDIR", "/usr/src/linux")

	require.Equal(t, []string{"KERNELDIR=/usr/src/linux", "PATH=/bin"}, env.Environ())
}

func TestEnvironment_Actions(t *testing.T) {
	env := buildenv.New()

	var called []string
	record := func(name string) buildenv.Action {
		return buildenv.ActionFunc(func(_ context.Context, _ *buildenv.Environment, targets, _ []string) error {
			called = append(called, name+":"+strings.Join(targets, ","))
			return nil
		})
	}

	env.RegisterAction("Program", record("first"))
	env.RegisterAction("Kmake", record("kmake"))
	env.RegisterAction("Program", record("second"))

	require.Equal(t, []string{"Kmake", "Program"}, env.Actions())

	_, ok := env.Action("Library")
	require.False(t, ok)

	require.NoError(t, env.Run(context.Background(), "Program", []string{"a.out"}, nil))
	require.Equal(t, []string{"second:a.out"}, called)

	err := env.Run(context.Background(), "Library", nil, nil)
	require.True(t, errors.Is(err, buildenv.ErrUnknownAction))

	require.Panics(t, func() { env.RegisterAction("", record("empty")) })
	require.Panics(t, func() { env.RegisterAction("Nil", nil) })
}

type fakeExecutor struct {
	commands []string
	err      error
}

func (f *fakeExecutor) Execute(_ context.Context, _ *buildenv.Environment, command string) error {
	f.commands = append(f.commands, command)
	return f.err
}

func TestEnvironment_Execute(t *testing.T) {
	var logs bytes.Buffer

	executor := &fakeExecutor{err: errors.New("exit status 1")}
	env := buildenv.New()
	env.Executor = executor
	env.Log = log.New(&logs, "", 0)

	err := env.Execute(context.Background(), "which cc")
	require.Error(t, err)
	require.Equal(t, []string{"which cc"}, executor.commands)
	require.Equal(t, "which cc\n", logs.String())
}

func writeExecutable(tb testing.TB, dir, name string, mode os.FileMode) {
	tb.Helper()

	require.NoError(tb, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), mode))
}

func TestEnvironment_Detect(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits are not meaningful on windows")
	}

	dir := t.TempDir()
	writeExecutable(t, dir, "cross-gcc", 0o755)
	writeExecutable(t, dir, "plain-file", 0o644)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "directory"), 0o755))

	env := buildenv.New()
	require.Empty(t, env.Detect("cross-gcc"))

	env.PrependPath(buildenv.PathKey, dir)
	require.Equal(t, "cross-gcc", env.Detect("missing", "cross-gcc"))
	require.Empty(t, env.Detect("plain-file", "directory"))

	path, err := env.LookPath("cross-gcc")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cross-gcc"), path)

	path, err = env.LookPath(filepath.Join(dir, "cross-gcc"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "cross-gcc"), path)

	_, err = env.LookPath("missing")
	require.True(t, errors.Is(err, buildenv.ErrNotFound))
}

func TestShellExecutor_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	var stdout bytes.Buffer

	env := buildenv.New()
	env.Stdout = &stdout
	env.Setenv("GREETING", "hello")

	require.NoError(t, env.Execute(context.Background(), `echo "$GREETING"`))
	require.Equal(t, "hello\n", stdout.String())

	require.Error(t, env.Execute(context.Background(), "exit 3"))
}
