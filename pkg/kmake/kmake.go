/*
Package kmake implements a build action for out-of-tree Linux kernel modules.

The action runs the kernel's own build system (kbuild) through make, pointing
it at the directory holding the module sources. The kernel tree is taken from
the KERNELDIR variable of the environment's execution environment.
*/
package kmake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docker/go-units"
	"github.com/tmaxmax/armbecross/pkg/buildenv"
	"golang.org/x/sync/errgroup"
)

// Name is the name under which toolchain profiles register the action.
const Name = "Kmake"

// Execution environment variables read by the action.
const (
	KernelDirKey  = "KERNELDIR"
	KernelArchKey = "KARCH"
)

// ErrNoKernelDir is returned when the environment does not say where the kernel tree is.
var ErrNoKernelDir = errors.New("kmake: " + KernelDirKey + " is not set")

var execCommandContext = exec.CommandContext

// Action builds kernel modules. The zero value is ready to use.
type Action struct {
	// Make is the make executable to run. Defaults to "make".
	Make string
	// Goal is the make goal. Defaults to "modules".
	Goal string
}

var _ buildenv.Action = (*Action)(nil)

// New returns an Action with the default settings.
func New() *Action {
	return &Action{}
}

// Run builds the modules whose sources are given. Every directory containing
// sources is built with a separate make invocation; invocations run in
// parallel and the first failure cancels the others. The output of each
// invocation is written to the environment's writers once it finishes, so
// output from different directories is never interleaved. Each target must
// exist once make is done.
func (a *Action) Run(ctx context.Context, env *buildenv.Environment, targets, sources []string) error {
	kernelDir := env.Getenv(KernelDirKey)
	if kernelDir == "" {
		return ErrNoKernelDir
	}

	makePath, err := env.LookPath(a.makeName())
	if err != nil {
		return fmt.Errorf("kmake: %w", err)
	}

	dirs, err := sourceDirs(sources)
	if err != nil {
		return err
	}

	out := &output{stdout: env.Stdout, stderr: env.Stderr}
	g, ctx := errgroup.WithContext(ctx)

	for _, dir := range dirs {
		dir := dir

		g.Go(func() error {
			return a.make(ctx, env, out, makePath, kernelDir, dir)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("kmake: target not built: %w", err)
		}

		env.Logger().Printf("kmake: built %s (%s)", target, units.HumanSize(float64(info.Size())))
	}

	return nil
}

func (a *Action) make(ctx context.Context, env *buildenv.Environment, out *output, makePath, kernelDir, dir string) error {
	args := makeArgs(env, kernelDir, dir, a.goal())
	env.Logger().Println(a.makeName(), strings.Join(args, " "))

	var stdout, stderr bytes.Buffer

	cmd := execCommandContext(ctx, makePath, args...)
	cmd.Env = env.Environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out.flush(&stdout, &stderr)

	if err != nil {
		return fmt.Errorf("kmake: failed to build %s: %w", dir, err)
	}

	return nil
}

// output serializes writes of concurrent make invocations to the
// environment's writers, which may be the same writer.
type output struct {
	mu             sync.Mutex
	stdout, stderr io.Writer
}

func (o *output) flush(stdout, stderr *bytes.Buffer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stdout != nil {
		_, _ = stdout.WriteTo(o.stdout)
	}
	if o.stderr != nil {
		_, _ = stderr.WriteTo(o.stderr)
	}
}

func makeArgs(env *buildenv.Environment, kernelDir, dir, goal string) []string {
	args := []string{
		"-C", kernelDir,
		"M=" + dir,
		KernelDirKey + "=" + kernelDir,
	}

	if prefix := CrossCompilePrefix(env.Get(buildenv.CC)); prefix != "" {
		args = append(args, "CROSS_COMPILE="+prefix)
	}

	if arch := env.Getenv(KernelArchKey); arch != "" {
		args = append(args, "ARCH="+arch)
	}

	return append(args, goal)
}

// CrossCompilePrefix derives the kbuild CROSS_COMPILE prefix from a C
// compiler name, such as "armbe-linux-" from "armbe-linux-gcc". It returns
// an empty string for native compilers.
func CrossCompilePrefix(cc string) string {
	name := filepath.Base(cc)
	if !strings.HasSuffix(name, "gcc") {
		return ""
	}

	prefix := strings.TrimSuffix(name, "gcc")
	if prefix == "" {
		return ""
	}

	return strings.TrimSuffix(cc, "gcc")
}

func sourceDirs(sources []string) ([]string, error) {
	var dirs []string
	seen := map[string]bool{}

	for _, source := range sources {
		dir, err := filepath.Abs(filepath.Dir(source))
		if err != nil {
			return nil, fmt.Errorf("kmake: failed to resolve source directory: %w", err)
		}

		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	return dirs, nil
}

func (a *Action) makeName() string {
	if a.Make == "" {
		return "make"
	}
	return a.Make
}

func (a *Action) goal() string {
	if a.Goal == "" {
		return "modules"
	}
	return a.Goal
}
