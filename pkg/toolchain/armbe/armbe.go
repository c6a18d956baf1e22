/*
Package armbe provides the toolchain profile for the big-endian ARM Linux
cross compilers (armbe-linux-gcc and friends).

It registers the profile under the name "armbecross".
*/
package armbe

import (
	"context"

	"github.com/tmaxmax/armbecross/pkg/buildenv"
	"github.com/tmaxmax/armbecross/pkg/kmake"
	"github.com/tmaxmax/armbecross/pkg/toolchain"
)

// Name of the profile in the toolchain registry.
const Name = "armbecross"

// FallbackPath is where the cross tools are usually installed. It is put on
// the search path in case it is not there already.
const FallbackPath = "/opt/arcom/bin"

// Compiler is the tool whose presence decides whether the toolchain exists.
const Compiler = "armbe-linux-gcc"

var tools = toolchain.Tools{
	buildenv.Archiver:  "armbe-linux-ar",
	buildenv.Assembler: "armbe-linux-as",
	buildenv.CC:        Compiler,
	buildenv.Linker:    "armbe-linux-ld",
	buildenv.CXX:       "armbe-linux-g++",
	buildenv.Link:      "armbe-linux-g++",
	buildenv.Ranlib:    "armbe-linux-ranlib",
	buildenv.Lexer:     "armbe-linux-flex",
}

// Tools returns a copy of the commands the profile configures.
func Tools() toolchain.Tools {
	out := make(toolchain.Tools, len(tools))
	for v, command := range tools {
		out[v] = command
	}
	return out
}

// probes are only reported in the build output, their results are ignored.
var probes = []string{
	"arm-linux-gcc",
	"arm-linux-g++",
	"armbe-linux-gcc",
	"armbe-linux-g++",
}

// Profile configures environments for the ARM big-endian cross toolchain.
type Profile struct {
	// Kmake is the action registered as "Kmake". Defaults to a kmake.Action.
	Kmake buildenv.Action
}

var _ toolchain.Profile = (*Profile)(nil)

// New returns a Profile that registers the default kernel module action.
func New() *Profile {
	return &Profile{Kmake: kmake.New()}
}

// Apply puts FallbackPath on the search path, reports where the compilers
// are found, overwrites the tool variables and registers the Kmake action.
func (p *Profile) Apply(ctx context.Context, env *buildenv.Environment) {
	env.PrependPath(buildenv.PathKey, FallbackPath)

	for _, probe := range probes {
		_ = env.Execute(ctx, "which "+probe)
	}

	tools.ApplyTo(env)

	env.RegisterAction(kmake.Name, p.kmake())
}

// Exists reports whether the cross C compiler can be found on the environment's search path.
func (p *Profile) Exists(env *buildenv.Environment) bool {
	return env.Detect(Compiler) != ""
}

func (p *Profile) kmake() buildenv.Action {
	if p.Kmake == nil {
		return kmake.New()
	}
	return p.Kmake
}

func init() {
	toolchain.RegisterProfile(Name, New())
}
