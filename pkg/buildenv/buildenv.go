/*
Package buildenv provides the mutable build environment that toolchain
profiles configure: tool variables, the execution environment used to run
tools, and a registry of named build actions.

The environment never touches the process environment. Command lookup and
shell execution go through the CommandResolver and Executor fields, so
callers can substitute their own implementations.
*/
package buildenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Var is the name of a tool variable, such as the C compiler.
type Var string

// Tool roles a profile may configure.
const (
	Archiver  Var = "AR"
	Assembler Var = "AS"
	CC        Var = "CC"
	Linker    Var = "LD"
	CXX       Var = "CXX"
	Link      Var = "LINK"
	Ranlib    Var = "RANLIB"
	Lexer     Var = "LEX"
)

// PathKey is the execution environment variable holding the executable search path.
const PathKey = "PATH"

// ErrUnknownAction is returned by Run when no action is registered under the given name.
var ErrUnknownAction = errors.New("buildenv: unknown action")

// Environment is the state a build system passes between configuration steps.
// The zero value is not usable, create one with New or FromOS.
//
// An Environment is not safe for concurrent mutation. Concurrent reads are fine.
type Environment struct {
	// Resolver looks up executables on the search path. Defaults to PathResolver.
	Resolver CommandResolver
	// Executor runs shell commands. Defaults to ShellExecutor.
	Executor Executor
	// Stdout and Stderr receive the output of executed commands. Nil discards it.
	Stdout, Stderr io.Writer
	// Log receives the command lines and diagnostics. Nil discards them.
	Log *log.Logger

	vars    map[Var]string
	env     map[string]string
	actions map[string]Action
}

// New creates an environment with no variables and an empty execution environment.
func New() *Environment {
	return &Environment{
		Resolver: PathResolver{},
		Executor: ShellExecutor{},
		vars:     map[Var]string{},
		env:      map[string]string{},
		actions:  map[string]Action{},
	}
}

// FromOS creates an environment whose execution environment is a copy of os.Environ.
func FromOS() *Environment {
	e := New()
	for _, entry := range os.Environ() {
		if key, value, ok := cut(entry, "="); ok && key != "" {
			e.env[key] = value
		}
	}
	return e
}

func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// Set overwrites the value of a tool variable.
func (e *Environment) Set(v Var, value string) {
	e.vars[v] = value
}

// Replace overwrites every variable in vars, leaving the others untouched.
func (e *Environment) Replace(vars map[Var]string) {
	for v, value := range vars {
		e.vars[v] = value
	}
}

// Get returns the value of a tool variable, or an empty string if it is not set.
func (e *Environment) Get(v Var) string {
	return e.vars[v]
}

// Lookup returns the value of a tool variable and whether it is set.
func (e *Environment) Lookup(v Var) (string, bool) {
	value, ok := e.vars[v]
	return value, ok
}

// Vars returns a copy of all tool variables.
func (e *Environment) Vars() map[Var]string {
	vars := make(map[Var]string, len(e.vars))
	for v, value := range e.vars {
		vars[v] = value
	}
	return vars
}

// Getenv returns a variable of the execution environment.
func (e *Environment) Getenv(key string) string {
	return e.env[key]
}

// Setenv sets a variable of the execution environment.
func (e *Environment) Setenv(key, value string) {
	e.env[key] = value
}

// PrependPath puts dir in front of the list held by the execution environment
// variable key. Nothing happens if dir is already the first entry. Existing
// entries keep their order, even if one of them equals dir.
func (e *Environment) PrependPath(key, dir string) {
	entries := splitList(e.env[key])
	if len(entries) > 0 && entries[0] == dir {
		return
	}

	e.env[key] = strings.Join(append([]string{dir}, entries...), string(os.PathListSeparator))
}

// SearchPath returns the directories of the execution environment's PATH, in order.
func (e *Environment) SearchPath() []string {
	return splitList(e.env[PathKey])
}

func splitList(list string) []string {
	var out []string
	for _, entry := range filepath.SplitList(list) {
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// Environ returns the execution environment in the key=value form, sorted by key.
func (e *Environment) Environ() []string {
	out := make([]string, 0, len(e.env))
	for key, value := range e.env {
		out = append(out, key+"="+value)
	}
	sort.Strings(out)
	return out
}

// Detect returns the first of the given executable names that can be resolved
// on the environment's search path. It returns an empty string if none is found.
func (e *Environment) Detect(names ...string) string {
	path := e.SearchPath()
	for _, name := range names {
		if _, err := e.resolver().LookPath(name, path); err == nil {
			return name
		}
	}
	return ""
}

// LookPath resolves name on the environment's search path.
func (e *Environment) LookPath(name string) (string, error) {
	return e.resolver().LookPath(name, e.SearchPath())
}

// Execute logs the command and runs it through the environment's executor.
func (e *Environment) Execute(ctx context.Context, command string) error {
	e.logger().Println(command)

	executor := e.Executor
	if executor == nil {
		executor = ShellExecutor{}
	}

	if err := executor.Execute(ctx, e, command); err != nil {
		return fmt.Errorf("buildenv: %q failed: %w", command, err)
	}

	return nil
}

// Logger returns the environment's logger, or a logger that discards everything.
func (e *Environment) Logger() *log.Logger {
	return e.logger()
}

func (e *Environment) logger() *log.Logger {
	if e.Log == nil {
		return discardLogger
	}
	return e.Log
}

var discardLogger = log.New(io.Discard, "", 0)

func (e *Environment) resolver() CommandResolver {
	if e.Resolver == nil {
		return PathResolver{}
	}
	return e.Resolver
}
