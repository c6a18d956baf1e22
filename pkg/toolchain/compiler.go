package toolchain

import (
	"context"
	"io"
)

// A Compiler can compile one C/C++ source to an object or executable.
type Compiler interface {
	// Compile compiles the source read from input and writes the result to
	// outputPath. It parses the given options to the format required by the
	// underlying compiler. The compile options may be nil.
	Compile(ctx context.Context, input io.Reader, outputPath string, options *CompileOptions) error
	// Info returns some information about the compiler.
	Info() CompilerInfo
}

// CompileOptions customizes the compilation process in a compiler-agnostic way.
// Each option is translated to the compiler-specific flags.
type CompileOptions struct {
	// IncludePaths where additional headers should be found.
	IncludePaths []string
	// LibraryPaths where libraries required for linking should be found.
	LibraryPaths []string
	// Libraries to link the executable to.
	Libraries []string
	// LanguageStandard specifies the language standard used to compile the source.
	LanguageStandard CompileLanguageStandard
	// OptimizationLevel specifies the level of optimization applied to the output.
	OptimizationLevel CompileOptimizationLevel
	// Language of the source read from the input. Defaults to C++.
	Language SourceLanguage
	// Defines specifies a list of macros that should be defined.
	Defines []string
	// Undefs specifies a list of macros that should be undefined.
	Undefs []string
	// ObjectOnly stops after compilation, producing an object file instead of an executable.
	ObjectOnly bool
	// Flags are passed to the compiler untranslated, after all the other options.
	Flags []string
}

// CompileOptimizationLevel values are used to specify the optimization level used by the compiler.
type CompileOptimizationLevel int

const (
	// CompileOptimizationNone means no optimization. It is equivalent to -O0.
	CompileOptimizationNone CompileOptimizationLevel = iota
	// CompileOptimizationModerate is equivalent to -O1.
	CompileOptimizationModerate
	// CompileOptimizationAggressive is equivalent to -O2.
	CompileOptimizationAggressive
	// CompileOptimizationSize optimizes for size, which matters on small
	// embedded targets. It is equivalent to -Os.
	CompileOptimizationSize
	// CompileOptimizationDebug provides the best debugging experience, -Og and -ggdb on GCC.
	CompileOptimizationDebug
)

// CompileLanguageStandard values are used to specify the desired C/C++ standard used by the compiler.
// If the compiler does not support the specified standard, compilation will fail.
type CompileLanguageStandard int

const (
	// CompileLanguageStandardDefault is the default language standard used by the compiler.
	// In other words, no standard flag is passed.
	CompileLanguageStandardDefault CompileLanguageStandard = iota
	CompileLanguageStandardC90
	CompileLanguageStandardC99
	CompileLanguageStandardC11
	CompileLanguageStandardCPP98
	CompileLanguageStandardCPP03
	CompileLanguageStandardCPP11
	CompileLanguageStandardCPP14
)

// SourceLanguage is the language of a compiled source.
type SourceLanguage int

const (
	SourceLanguageCPP SourceLanguage = iota
	SourceLanguageC
)

// CompilerInfo holds some information about the underlying compiler.
type CompilerInfo struct {
	// Name of the compiler, as configured in the environment.
	Name string
	// Path of the compiler's executable.
	Path string
	// Version number of the compiler.
	Version string
}
