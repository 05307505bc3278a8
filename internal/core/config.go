// Package core holds the process-wide configuration and error types shared
// across the generator. It has no dependency on the node/parse/generate
// packages so that all of them can depend on it.
package core

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/please-build/gcfg"

	"github.com/LuminateWireless/repobuild/internal/cli/logging"
)

var log = logging.Log

// ConfigFileName is the file name for the repo-level config. Normally checked in.
const ConfigFileName = ".repobuild"

// Make variable names the generated Makefile's head preamble defines one of
// for each managed directory (spec §6): `registry.WriteMakeHead` emits
// `NAME := value`, and every path the node package builds underneath one of
// these directories references the name via MakeRef rather than the literal
// Configuration/Input value directly — so the directory stays overridable
// from the `make` command line the way plain recipe text always is.
const (
	ObjDirVar = "OBJ_DIR"
	SrcDirVar = "SRC_DIR"
	GenDirVar = "GEN_DIR"
	PkgDirVar = "PKG_DIR"
	BinDirVar = "BIN_DIR"
)

// MakeRef formats a make variable name as a reference, e.g. "OBJ_DIR" becomes "$(OBJ_DIR)".
func MakeRef(name string) string {
	return "$(" + name + ")"
}

// Configuration is the on-disk, layered configuration that feeds the Input record.
// It's read with gcfg, the same ini-style format and library please uses for .plzconfig.
type Configuration struct {
	Build struct {
		// MinVersion, if set, is the oldest generator version this build file tree
		// claims to be compatible with.
		MinVersion string
	}
	Dirs struct {
		ObjectDir  string
		SourceDir  string
		GenfileDir string
		PkgfileDir string
		BinaryDir  string
	}
	Flags map[string][]string `gcfg:"flag"`
}

// DefaultConfiguration returns a Configuration populated with repobuild's
// defaults: literal directory names, mirroring the original generator's
// env/input.cc (object_dir_ = "obj", source_dir_ = "src"). These are the
// values WriteMakeHead uses as the right-hand side of each managed
// directory's `NAME := value` definition, not make-variable references
// themselves.
func DefaultConfiguration() *Configuration {
	c := &Configuration{}
	c.Dirs.ObjectDir = "obj"
	c.Dirs.SourceDir = "src"
	c.Dirs.GenfileDir = "gen"
	c.Dirs.PkgfileDir = "pkg"
	c.Dirs.BinaryDir = "bin"
	return c
}

// ReadConfigFiles reads the given config file locations in order, overlaying
// each on top of repobuild's defaults. It is not an error for any of them to
// be missing.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	if config.Build.MinVersion != "" {
		if _, err := semver.NewVersion(config.Build.MinVersion); err != nil {
			log.Warning("invalid min_version %q in config: %s", config.Build.MinVersion, err)
		}
	}
	return config, nil
}

func readConfigFile(config *Configuration, filename string) error {
	log.Debug("Reading config from %s...", filename)
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // Not an error to be missing entirely.
	} else if gcfg.FatalOnly(err) != nil {
		return err
	} else if err != nil {
		log.Warning("Error in config file %s: %s", filename, err)
	}
	return nil
}

// Input is the process-wide, read-only configuration the rest of the engine
// consumes (spec §3). It is constructed once by the CLI collaborator and
// shared by reference; nothing mutates it after construction.
type Input struct {
	RootDir     string
	CurrentPath string
	ObjectDir   string
	SourceDir   string
	GenfileDir  string
	PkgfileDir  string
	BinaryDir   string
	SilentMake  bool
	SilentGenSh bool
	flags       map[string][]string
}

// NewInput builds an Input from a Configuration and the handful of fields
// that come from the command line rather than the config file.
func NewInput(config *Configuration, rootDir, currentPath string, silentMake, silentGenSh bool) *Input {
	return &Input{
		RootDir:     rootDir,
		CurrentPath: currentPath,
		ObjectDir:   config.Dirs.ObjectDir,
		SourceDir:   config.Dirs.SourceDir,
		GenfileDir:  config.Dirs.GenfileDir,
		PkgfileDir:  config.Dirs.PkgfileDir,
		BinaryDir:   config.Dirs.BinaryDir,
		SilentMake:  silentMake,
		SilentGenSh: silentGenSh,
		flags:       config.Flags,
	}
}

// Flags returns the list of extra flags configured under the given name, or
// an empty (non-nil) slice if there are none. This never fails.
func (in *Input) Flags(name string) []string {
	if in.flags == nil {
		return nil
	}
	return in.flags[name]
}
