// Package node implements the build-unit contract (spec §3 Node, §4.4): a
// shared Base carrying the intrinsic state and default (no-op) hook
// implementations, and one variant type per build kind that embeds Base and
// overrides only the hooks it needs. This is the "tagged sum of variants
// plus a shared trait/interface" shape spec §9's design notes call for,
// rather than a mirrored class hierarchy.
package node

import (
	"os"
	"path"

	"github.com/LuminateWireless/repobuild/internal/cli/logging"
	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

var log = logging.Log

// Node is the uniform interface every build-kind variant satisfies so the
// parser and generator can treat them polymorphically.
type Node interface {
	Info() target.Info
	Kind() string

	DepTargets() []target.Info
	AddDependencyTarget(t target.Info)

	Dependencies() []Node
	SetDependencies(deps []Node)

	// Subnodes returns the children this node spawned during Parse that
	// still need to be hoisted into the pool (spec §4.6).
	Subnodes() []Node
	// ExtractSubnodes clears and returns the pending subnode list, marking
	// them hoisted. Idempotent: a second call returns nil.
	ExtractSubnodes() []Node

	// Parse reads variant-specific fields from a build file entry. May add
	// subnodes via AddSubNode and dependencies via AddDependencyTarget.
	Parse(entry BuildEntry) error

	WriteMake(mf *makefile.Makefile)
	LocalWriteMakeClean(r *makefile.Rule)
	LocalWriteMakeInstall(mf *makefile.Makefile, r *makefile.Rule)

	LocalDependencyFiles(lang Language, out *target.FileSet)
	LocalObjectFiles(lang Language, out *target.FileSet)
	LocalFinalOutputs(lang Language, out *target.FileSet)
	LocalLinkFlags(lang Language, out *target.StringSet)
	LocalCompileFlags(lang Language, out *target.StringSet)
	LocalIncludeDirs(lang Language, out *target.StringSet)
	LocalEnvVariables(lang Language, out *target.EnvMap)
	LocalSystemDependencies(lang Language, out *target.StringSet)

	IncludeDependencies(kind CollectionKind, lang Language) bool
	IncludeChildDependency(kind CollectionKind, lang Language, child Node) bool
	IncludeInAll() bool
	IncludeInTests() bool
	Licenses(out *target.StringSet)
}

// BuildEntry is the minimal facade the parser hands to Parse: a kind-tagged
// bag of fields extracted from an external BuildFileNode (spec §1's
// out-of-scope "field-extraction facade"). See internal/buildfile.
type BuildEntry interface {
	Type() string
	Name() string
	String(field string) string
	StringList(field string) []string
	Bool(field string) bool
	StringMap(field string) map[string]string
	Has(field string) bool
}

// Base carries the intrinsic state every node has (spec §3) plus default,
// no-op implementations of every Node hook. Variants embed *Base and
// override only the hooks their kind needs.
type Base struct {
	Target         target.Info
	Input          *core.Input
	StrictFileMode bool

	depTargets   []target.Info
	dependencies []Node
	subnodes     []Node
	licenses     []string
}

// NewBase constructs a Base for the given target.
func NewBase(t target.Info, in *core.Input) *Base {
	return &Base{Target: t, Input: in}
}

func (b *Base) Info() target.Info { return b.Target }

func (b *Base) DepTargets() []target.Info { return b.depTargets }

// AddDependencyTarget declares a dependency on another target by its (not
// yet resolved) identity. Safe to call multiple times with the same target;
// it dedupes by FullPath.
func (b *Base) AddDependencyTarget(t target.Info) {
	for _, existing := range b.depTargets {
		if existing.Equal(t) {
			return
		}
	}
	b.depTargets = append(b.depTargets, t)
}

func (b *Base) Dependencies() []Node { return b.dependencies }

func (b *Base) SetDependencies(deps []Node) { b.dependencies = deps }

func (b *Base) Subnodes() []Node { return b.subnodes }

// AddSubNode registers a child node created during Parse, to be hoisted by
// the parser once Parse returns.
func (b *Base) AddSubNode(n Node) {
	b.subnodes = append(b.subnodes, n)
}

func (b *Base) ExtractSubnodes() []Node {
	out := b.subnodes
	b.subnodes = nil
	return out
}

// parseStrictFileMode reads the strict_file_mode common field (spec §3)
// shared across every build-kind entry.
func (b *Base) parseStrictFileMode(entry BuildEntry) {
	b.StrictFileMode = entry.Bool("strict_file_mode")
}

// checkSources validates declared, non-generated source resources against
// the real filesystem, raising the fatal FileNotFound disposition when
// strict_file_mode is set (spec §7). Outside strict mode the check is
// skipped: a missing source simply fails later, at `make` time, the same as
// it always has, rather than paying a stat per source on every parse.
func (b *Base) checkSources(resources []target.Resource) error {
	if !b.StrictFileMode {
		return nil
	}
	for _, r := range resources {
		if r.Generated {
			continue
		}
		if _, err := os.Stat(path.Join(b.Input.RootDir, r.Path)); err != nil {
			return core.NewError(core.FileNotFound, b.Target.FullPath(), r.Path)
		}
	}
	return nil
}

// --- directory derivation (spec §3: "derived directories") ---

// SrcDir is the source directory for this target's package, referenced via
// $(SRC_DIR) rather than Input.SourceDir's literal value (spec §6: paths
// embedded in the Makefile carry the make variable, not its value, so a
// `make` invocation can still override it).
func (b *Base) SrcDir() string { return path.Join(core.MakeRef(core.SrcDirVar), b.Target.Dir) }

// ObjDir is the object directory for this target's package, referenced via $(OBJ_DIR).
func (b *Base) ObjDir() string { return path.Join(core.MakeRef(core.ObjDirVar), b.Target.Dir) }

// GenDir is the generated-file directory for this target's package, referenced via $(GEN_DIR).
func (b *Base) GenDir() string { return path.Join(core.MakeRef(core.GenDirVar), b.Target.Dir) }

// PkgDir is the package-file directory for this target's package, referenced
// via $(PKG_DIR); mirrors SrcDir's variable-not-value discipline.
func (b *Base) PkgDir() string { return path.Join(core.MakeRef(core.PkgDirVar), b.Target.Dir) }

// RelObjDir is ObjDir without the leading object-dir variable: the target's
// package directory, relative to the object-dir root.
func (b *Base) RelObjDir() string { return b.Target.Dir }

// --- default (no-op) hook implementations ---

func (b *Base) Kind() string { return "" }

func (b *Base) Parse(entry BuildEntry) error { return nil }

// WriteUserTarget emits the rule every variant must produce: a rule named
// target.make_path, depending on the given prerequisites (spec §4.4's
// "standard idiom is write_base_user_target").
func (b *Base) WriteUserTarget(deps []string, mf *makefile.Makefile) {
	mf.WriteRule(b.Target.MakePath(), deps)
}

func (b *Base) LocalWriteMakeClean(r *makefile.Rule)                          {}
func (b *Base) LocalWriteMakeInstall(mf *makefile.Makefile, r *makefile.Rule) {}

func (b *Base) LocalDependencyFiles(lang Language, out *target.FileSet)      {}
func (b *Base) LocalObjectFiles(lang Language, out *target.FileSet)          {}
func (b *Base) LocalFinalOutputs(lang Language, out *target.FileSet)         {}
func (b *Base) LocalLinkFlags(lang Language, out *target.StringSet)          {}
func (b *Base) LocalCompileFlags(lang Language, out *target.StringSet)       {}
func (b *Base) LocalIncludeDirs(lang Language, out *target.StringSet)        {}
func (b *Base) LocalEnvVariables(lang Language, out *target.EnvMap)          {}
func (b *Base) LocalSystemDependencies(lang Language, out *target.StringSet) {}

func (b *Base) IncludeDependencies(kind CollectionKind, lang Language) bool { return true }
func (b *Base) IncludeChildDependency(kind CollectionKind, lang Language, child Node) bool {
	return true
}
func (b *Base) IncludeInAll() bool   { return true }
func (b *Base) IncludeInTests() bool { return false }

// AddLicence records a licence on this node if not already present.
func (b *Base) AddLicence(l string) {
	for _, existing := range b.licenses {
		if existing == l {
			return
		}
	}
	b.licenses = append(b.licenses, l)
}

func (b *Base) Licenses(out *target.StringSet) {
	out.AddAll(b.licenses)
}
