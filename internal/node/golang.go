package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// goBase factors the fields shared by go_library and go_binary: both compile
// a package directory's sources with `go build`, the one difference being
// whether the result is installed as an archive or a stable linked binary.
type goBase struct {
	*Base
	srcs       []target.Resource
	importPath string
}

func (n *goBase) parseCommon(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	for _, s := range entry.StringList("srcs") {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
	}
	n.importPath = entry.String("import_path")
	if n.importPath == "" {
		n.importPath = n.Target.Dir
	}
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	return nil
}

func (n *goBase) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
}

// GoLibrary is the go_library Compiler-pattern node (spec §3): it compiles
// its package to a single archive and contributes it to OBJECT_FILES under
// Golang, where consuming nodes collect it as a prerequisite.
type GoLibrary struct {
	goBase
	touch target.Resource
}

func NewGoLibrary(t target.Info, in *core.Input) *GoLibrary {
	return &GoLibrary{goBase: goBase{Base: NewBase(t, in)}}
}

func (n *GoLibrary) Kind() string { return "go_library" }

// Parse mints the gofmt syntax-check touchfile alongside the archive path:
// go_library.cc runs this as a separate rule from the real compile, so a
// source with a syntax error is caught even if something upstream is
// stale enough that `go build` itself never reruns.
func (n *GoLibrary) Parse(entry BuildEntry) error {
	if err := n.parseCommon(entry); err != nil {
		return err
	}
	n.touch = target.Touchfile(core.MakeRef(core.ObjDirVar), n.Target, "gofmt")
	return nil
}

// LocalDependencyFiles adds the syntax-check touchfile on top of goBase's raw
// sources, so a dependent only rebuilds past it once gofmt -e has passed.
func (n *GoLibrary) LocalDependencyFiles(lang Language, out *target.FileSet) {
	n.goBase.LocalDependencyFiles(lang, out)
	out.Add(n.touch)
}

func (n *GoLibrary) archivePath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName+".a")
}

func (n *GoLibrary) LocalObjectFiles(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Golang {
		out.Add(target.GeneratedResource(n.archivePath()))
	}
}

func (n *GoLibrary) WriteMake(mf *makefile.Makefile) {
	obj := n.archivePath()
	deps := resourcePaths(n.srcs)
	r := mf.StartRule(obj, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(obj))))
	r.WriteUserEcho("Compiling", n.Target.FullPath())
	r.WriteCommand(fmt.Sprintf("go build -o %s %s", makefile.EscapeMakeRef(obj), makefile.EscapeMakeRef("./"+n.Target.Dir)))
	mf.FinishRule(r)

	// Syntax check, independent of the compile rule above (go_library.cc's
	// own Init/LocalWriteMakeInternal split): gofmt -e validates every
	// source parses and touches n.touch, which LocalDependencyFiles exposes
	// to dependents.
	srcArgs := make([]string, len(n.srcs))
	for i, s := range n.srcs {
		srcArgs[i] = makefile.EscapeMakeRef(s.Path)
	}
	tr := mf.StartRule(n.touch.Path, deps)
	tr.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(n.ObjDir())))
	tr.WriteCommand(fmt.Sprintf("gofmt -e %s && touch %s", strings.Join(srcArgs, " "), makefile.EscapeMakeRef(n.touch.Path)))
	mf.FinishRule(tr)

	// Both the archive and the syntax-check touchfile must be prerequisites
	// of the node's own target, or `make //pkg:lib`/`all` would never pull
	// the gofmt rule in at all.
	n.WriteUserTarget([]string{obj, n.touch.Path}, mf)
}

// GoBinary is the go_binary Linker-pattern node: it builds an executable
// from its own sources and the transitive Golang object set, then exposes it
// at a stable path via a spawned TopSymlink subnode.
type GoBinary struct {
	goBase
	symlink *TopSymlink
}

func NewGoBinary(t target.Info, in *core.Input) *GoBinary {
	return &GoBinary{goBase: goBase{Base: NewBase(t, in)}}
}

func (n *GoBinary) Kind() string { return "go_binary" }

// Parse spawns the TopSymlink subnode here, not in WriteMake: the parser
// hoists subnodes into the pool immediately after Parse returns (spec §4.6),
// before WriteMake ever runs. The symlink's target path is static (it
// doesn't depend on the compiled binary's content), so it can be computed
// up front.
func (n *GoBinary) Parse(entry BuildEntry) error {
	if err := n.parseCommon(entry); err != nil {
		return err
	}
	bin := path.Join(n.ObjDir(), n.Target.LocalName)
	linkPath := path.Join(core.MakeRef(core.BinDirVar), n.Target.Dir, n.Target.LocalName)
	n.symlink = NewTopSymlink(n.Target, n.Input, linkPath, target.GeneratedResource(bin))
	n.AddSubNode(n.symlink)
	return nil
}

func (n *GoBinary) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.symlink.LinkPath))
}

func (n *GoBinary) IncludeInAll() bool { return true }

func (n *GoBinary) WriteMake(mf *makefile.Makefile) {
	bin := path.Join(n.ObjDir(), n.Target.LocalName)
	deps := resourcePaths(n.srcs)
	for _, a := range InputFiles(n, ObjectFiles, Golang) {
		deps = append(deps, a.Path)
	}
	r := mf.StartRule(bin, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(bin))))
	r.WriteUserEcho("Linking", n.Target.FullPath())
	r.WriteCommand(fmt.Sprintf("go build -o %s %s", makefile.EscapeMakeRef(bin), makefile.EscapeMakeRef("./"+n.Target.Dir)))
	mf.FinishRule(r)
	n.WriteUserTarget([]string{n.symlink.LinkPath}, mf)
}
