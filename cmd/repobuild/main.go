// Command repobuild reads a tree of declarative build files and emits a
// single self-contained Makefile. It is the CLI collaborator spec.md treats
// as external to the build graph engine: it supplies the Input record and
// turns a fatal *core.Error into an exit code and a one-line diagnostic.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterebden/go-cli-init/v5/flags"

	"github.com/LuminateWireless/repobuild/internal/cli/logging"
	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/generate"
	"github.com/LuminateWireless/repobuild/internal/parse"
)

// version is stamped at release time; left as a placeholder for local builds.
const version = "0.1.0"

var opts = struct {
	Usage string

	Verbosity logging.Level `short:"v" long:"verbosity" description:"Verbosity of output (0-5, higher is more verbose)" default:"1"`
	RootDir   string        `short:"r" long:"root_dir" description:"Root directory of the repository" default:"."`
	Config    []string      `short:"c" long:"config" description:"Path to a .repobuild config file (repeatable; later files win)"`
	Output    string        `short:"o" long:"output" description:"File to write the generated Makefile to; '-' for stdout" default:"-"`
	Silent    bool          `long:"silent" description:"Suppress echoing of commands in the generated Makefile"`
	SilentSh  bool          `long:"silent_gensh" description:"Suppress echoing of gen_sh recipe commands specifically"`

	Args struct {
		Targets []string `positional-arg-name:"targets" description:"Targets to build, e.g. //src:lib, or //... for everything"`
	} `positional-args:"true"`
}{
	Usage: `
repobuild reads a tree of declarative build files and emits a single
self-contained GNU Makefile that drives compilation, test, install and
clean workflows across C, C++, Java, Python, Go and shell build kinds.
`,
}

func main() {
	flags.ParseFlagsOrDie("repobuild", version, &opts)
	logging.Init(opts.Verbosity)

	rootDir, err := filepath.Abs(opts.RootDir)
	if err != nil {
		die(core.NewError(core.ParseIO, opts.RootDir, err.Error()))
	}

	config, err := core.ReadConfigFiles(configFiles(rootDir))
	if err != nil {
		die(err)
	}
	input := core.NewInput(config, rootDir, opts.RootDir, opts.Silent, opts.Silent || opts.SilentSh)

	seeds := opts.Args.Targets
	if len(seeds) == 0 {
		seeds = []string{parse.WildcardToken}
	}

	output, err := generate.Generate(input, seeds)
	if err != nil {
		die(err)
	}

	if opts.Output == "-" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(opts.Output, []byte(output), 0644); err != nil {
		die(core.Wrap(core.ParseIO, opts.Output, err))
	}
}

// configFiles returns the default .repobuild location plus any explicitly
// given on the command line, in precedence order (spec §A.3: later files
// override earlier ones).
func configFiles(rootDir string) []string {
	files := []string{filepath.Join(rootDir, core.ConfigFileName)}
	return append(files, opts.Config...)
}

// die prints the single-line diagnostic spec §7 requires and exits
// non-zero. No partial Makefile is ever written before this point.
func die(err error) {
	fmt.Fprintf(os.Stderr, "repobuild: %s\n", err)
	os.Exit(1)
}
