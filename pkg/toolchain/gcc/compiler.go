package gcc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tmaxmax/armbecross/pkg/buildenv"
	"github.com/tmaxmax/armbecross/pkg/toolchain"
)

// ErrNoCompiler is returned by FromEnvironment when neither CXX nor CC is set.
var ErrNoCompiler = errors.New("gcc: no compiler configured")

var standardsRepresentation = map[toolchain.CompileLanguageStandard]string{
	toolchain.CompileLanguageStandardC90:   "c90",
	toolchain.CompileLanguageStandardC99:   "c99",
	toolchain.CompileLanguageStandardC11:   "c11",
	toolchain.CompileLanguageStandardCPP98: "c++98",
	toolchain.CompileLanguageStandardCPP03: "c++03",
	toolchain.CompileLanguageStandardCPP11: "c++11",
	toolchain.CompileLanguageStandardCPP14: "c++14",
}

func optimizationFlags(optimization toolchain.CompileOptimizationLevel) []string {
	switch optimization {
	case toolchain.CompileOptimizationModerate:
		return []string{"-O1"}
	case toolchain.CompileOptimizationAggressive:
		return []string{"-O2"}
	case toolchain.CompileOptimizationSize:
		return []string{"-Os"}
	case toolchain.CompileOptimizationDebug:
		return []string{"-Og", "-ggdb"}
	default:
		return []string{"-O0"}
	}
}

func parseOptions(outputPath string, opts *toolchain.CompileOptions) []string {
	if opts == nil {
		opts = &toolchain.CompileOptions{}
	}

	out := []string{"-o", outputPath}

	if opts.ObjectOnly {
		out = append(out, "-c")
	}

	for _, define := range opts.Defines {
		out = append(out, "-D"+define)
	}
	for _, undef := range opts.Undefs {
		out = append(out, "-U"+undef)
	}
	for _, include := range opts.IncludePaths {
		out = append(out, "-I"+include)
	}
	for _, libraryPath := range opts.LibraryPaths {
		out = append(out, "-L"+libraryPath)
	}

	if standard := standardsRepresentation[opts.LanguageStandard]; standard != "" {
		out = append(out, "-std="+standard)
	}

	out = append(out, optimizationFlags(opts.OptimizationLevel)...)
	out = append(out, opts.Flags...)

	// -x only affects the inputs after it; libraries must follow the source.
	if opts.Language == toolchain.SourceLanguageC {
		out = append(out, "-x", "c", "-")
	} else {
		out = append(out, "-x", "c++", "-")
	}

	for _, library := range opts.Libraries {
		out = append(out, "-l"+library)
	}

	return out
}

// Compiler runs a GCC-compatible compiler within a build environment.
type Compiler struct {
	info toolchain.CompilerInfo
	env  *buildenv.Environment
}

var _ toolchain.Compiler = (*Compiler)(nil)

// FromEnvironment creates a compiler for the environment's C++ compiler,
// or its C compiler if no C++ compiler is configured. The executable is
// looked up on the environment's search path.
func FromEnvironment(ctx context.Context, env *buildenv.Environment) (*Compiler, error) {
	name := env.Get(buildenv.CXX)
	if name == "" {
		name = env.Get(buildenv.CC)
	}
	if name == "" {
		return nil, ErrNoCompiler
	}

	path, err := env.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("gcc: failed to initialize compiler: %w", err)
	}

	cmd := execCommandContext(ctx, path, "-dumpversion")
	cmd.Env = env.Environ()
	version, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gcc: failed to initialize compiler: %w", err)
	}

	info := toolchain.CompilerInfo{
		Name:    name,
		Path:    path,
		Version: string(bytes.TrimSpace(version)),
	}

	return &Compiler{info: info, env: env}, nil
}

func (c *Compiler) Compile(ctx context.Context, input io.Reader, outputPath string, opts *toolchain.CompileOptions) error {
	args := parseOptions(outputPath, opts)
	cmd := execCommandContext(ctx, c.info.Path, args...)
	cmd.Env = c.env.Environ()
	cmd.Stdin = input
	cmd.Stdout = c.env.Stdout
	cmd.Stderr = c.env.Stderr

	c.env.Logger().Println(c.info.Name, args)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gcc: failed to compile: %w", err)
	}

	return nil
}

func (c *Compiler) Info() toolchain.CompilerInfo {
	return c.info
}
