package gcc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/armbecross/pkg/toolchain"
)

func TestParseOptions(t *testing.T) {
	type test struct {
		name    string
		options *toolchain.CompileOptions
		expect  []string
	}

	tests := []test{
		{
			name:   "Nil",
			expect: []string{"-o", "out", "-O0", "-x", "c++", "-"},
		},
		{
			name: "All",
			options: &toolchain.CompileOptions{
				IncludePaths:      []string{"include"},
				LibraryPaths:      []string{"/opt/arm/lib"},
				Libraries:         []string{"nidas_util", "pthread"},
				LanguageStandard:  toolchain.CompileLanguageStandardC99,
				OptimizationLevel: toolchain.CompileOptimizationSize,
				Language:          toolchain.SourceLanguageC,
				Defines:           []string{"ARM", "VERSION=2"},
				Undefs:            []string{"DEBUG"},
				ObjectOnly:        true,
				Flags:             []string{"-mbig-endian"},
			},
			expect: []string{
				"-o", "out", "-c",
				"-DARM", "-DVERSION=2", "-UDEBUG",
				"-Iinclude", "-L/opt/arm/lib",
				"-std=c99", "-Os", "-mbig-endian",
				"-x", "c", "-",
				"-lnidas_util", "-lpthread",
			},
		},
		{
			name: "Debug",
			options: &toolchain.CompileOptions{
				LanguageStandard:  toolchain.CompileLanguageStandardCPP11,
				OptimizationLevel: toolchain.CompileOptimizationDebug,
			},
			expect: []string{"-o", "out", "-std=c++11", "-Og", "-ggdb", "-x", "c++", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expect, parseOptions("out", tt.options))
		})
	}
}
