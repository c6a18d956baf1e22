package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmaxmax/armbecross/pkg/buildenv"
	"github.com/tmaxmax/armbecross/pkg/kmake"
	"github.com/tmaxmax/armbecross/pkg/toolchain"
	_ "github.com/tmaxmax/armbecross/pkg/toolchain/armbe"
	"github.com/tmaxmax/armbecross/pkg/toolchain/gcc"
	"gopkg.in/yaml.v3"
)

const usage = `usage: armbecross <command> [flags] [args]

commands:
  profiles   list the registered toolchain profiles and whether they are installed
  env        print the environment configured by a profile
  kmake      build kernel modules: kmake [flags] target.ko... -- source...
  compile    compile a source read from stdin
`

func main() {
	log.SetFlags(0)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalln(err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command, args := args[0], args[1:]

	switch command {
	case "profiles":
		return listProfiles(stdout)
	case "env":
		return printEnv(ctx, args, stdout)
	case "kmake":
		return runKmake(ctx, args)
	case "compile":
		return compile(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

type commonFlags struct {
	profile string
	verbose bool
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	common := &commonFlags{}
	fs.StringVar(&common.profile, "profile", "armbecross", "The toolchain profile to apply")
	fs.BoolVar(&common.verbose, "v", false, "Log the executed commands")
	return fs, common
}

// configure creates an environment from the process environment and applies the profile.
// Unless force is set, a profile whose tools are missing is an error.
func configure(ctx context.Context, common *commonFlags, force bool) (*buildenv.Environment, error) {
	env := buildenv.FromOS()
	env.Stdout = os.Stderr
	env.Stderr = os.Stderr
	if common.verbose {
		env.Log = log.New(os.Stderr, "", 0)
	}

	if !force {
		return env, toolchain.Use(ctx, env, common.profile)
	}

	profile, err := toolchain.LookupProfile(common.profile)
	if err != nil {
		return nil, err
	}

	profile.Apply(ctx, env)

	return env, nil
}

func listProfiles(stdout io.Writer) error {
	env := buildenv.FromOS()
	detected := map[string]bool{}
	for _, name := range toolchain.DetectProfiles(env) {
		detected[name] = true
	}

	for _, name := range toolchain.Profiles() {
		status := "missing"
		if detected[name] {
			status = "installed"
		}
		fmt.Fprintf(stdout, "%s\t%s\n", name, status)
	}

	return nil
}

type envDump struct {
	Vars    map[string]string `json:"vars" yaml:"vars"`
	Path    []string          `json:"path" yaml:"path"`
	Actions []string          `json:"actions" yaml:"actions"`
}

func printEnv(ctx context.Context, args []string, stdout io.Writer) error {
	fs, common := newFlagSet("env")
	format := fs.String("format", "json", "Output format, json or yaml")
	force := fs.Bool("force", false, "Apply the profile even if its tools are not installed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := configure(ctx, common, *force)
	if err != nil {
		return err
	}

	dump := envDump{
		Vars:    map[string]string{},
		Path:    env.SearchPath(),
		Actions: env.Actions(),
	}
	for v, value := range env.Vars() {
		dump.Vars[string(v)] = value
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dump)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		if err := enc.Encode(dump); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
}

func runKmake(ctx context.Context, args []string) error {
	fs, common := newFlagSet("kmake")
	kernelDir := fs.String("kerneldir", "", "The kernel tree to build against (overrides KERNELDIR)")
	arch := fs.String("arch", "", "The kernel architecture (overrides KARCH, which defaults to "+defaultKernelArch+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	targets, sources := splitTargets(fs.Args())
	if len(sources) == 0 {
		return errors.New("kmake: no sources given")
	}

	env, err := configure(ctx, common, false)
	if err != nil {
		return err
	}

	setKernelVars(env, *kernelDir, *arch)

	return env.Run(ctx, kmake.Name, targets, sources)
}

const defaultKernelArch = "arm"

// setKernelVars applies the kmake flags on top of the process environment.
func setKernelVars(env *buildenv.Environment, kernelDir, arch string) {
	if kernelDir != "" {
		env.Setenv(kmake.KernelDirKey, kernelDir)
	}

	switch {
	case arch != "":
		env.Setenv(kmake.KernelArchKey, arch)
	case env.Getenv(kmake.KernelArchKey) == "":
		env.Setenv(kmake.KernelArchKey, defaultKernelArch)
	}
}

// splitTargets splits the arguments at the first "--".
func splitTargets(args []string) (targets, sources []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return nil, args
}

var (
	standards = map[string]toolchain.CompileLanguageStandard{
		"c90":   toolchain.CompileLanguageStandardC90,
		"c99":   toolchain.CompileLanguageStandardC99,
		"c11":   toolchain.CompileLanguageStandardC11,
		"c++98": toolchain.CompileLanguageStandardCPP98,
		"c++03": toolchain.CompileLanguageStandardCPP03,
		"c++11": toolchain.CompileLanguageStandardCPP11,
		"c++14": toolchain.CompileLanguageStandardCPP14,
	}
	optimizations = map[string]toolchain.CompileOptimizationLevel{
		"0": toolchain.CompileOptimizationNone,
		"1": toolchain.CompileOptimizationModerate,
		"2": toolchain.CompileOptimizationAggressive,
		"s": toolchain.CompileOptimizationSize,
		"g": toolchain.CompileOptimizationDebug,
	}
)

func compile(ctx context.Context, args []string) error {
	fs, common := newFlagSet("compile")
	output := fs.String("o", "a.out", "The output file")
	std := fs.String("std", "", "The language standard")
	optimization := fs.String("O", "2", "The optimization level: 0, 1, 2, s or g")
	lang := fs.String("x", "c++", "The source language, c or c++")
	objectOnly := fs.Bool("c", false, "Compile to an object file without linking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := &toolchain.CompileOptions{
		ObjectOnly: *objectOnly,
		Flags:      fs.Args(),
	}

	if *std != "" {
		standard, ok := standards[*std]
		if !ok {
			return fmt.Errorf("unknown language standard %q", *std)
		}
		opts.LanguageStandard = standard
	}

	level, ok := optimizations[*optimization]
	if !ok {
		return fmt.Errorf("unknown optimization level %q", *optimization)
	}
	opts.OptimizationLevel = level

	switch *lang {
	case "c":
		opts.Language = toolchain.SourceLanguageC
	case "c++":
		opts.Language = toolchain.SourceLanguageCPP
	default:
		return fmt.Errorf("unknown source language %q", *lang)
	}

	env, err := configure(ctx, common, false)
	if err != nil {
		return err
	}

	compiler, err := gcc.FromEnvironment(ctx, env)
	if err != nil {
		return err
	}

	info := compiler.Info()
	env.Logger().Printf("compiler: %s (%s) version %s", info.Name, info.Path, info.Version)

	return compiler.Compile(ctx, os.Stdin, *output, opts)
}
