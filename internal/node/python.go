package node

import (
	"fmt"
	"path"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// PyLibrary is the py_library Collector-pattern node: Python has no compile
// step, so it just re-exposes its sources to DEPENDENCY_FILES/FINAL_OUTPUTS
// for consuming py_egg/py_binary nodes to zip up.
type PyLibrary struct {
	*Base
	srcs []target.Resource
}

func NewPyLibrary(t target.Info, in *core.Input) *PyLibrary {
	return &PyLibrary{Base: NewBase(t, in)}
}

func (n *PyLibrary) Kind() string { return "py_library" }

func (n *PyLibrary) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	srcs := entry.StringList("srcs")
	if len(srcs) == 0 {
		srcs = entry.StringList("py_sources")
	}
	for _, s := range srcs {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
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

func (n *PyLibrary) LocalDependencyFiles(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Python {
		out.AddAll(n.srcs)
	}
}

func (n *PyLibrary) LocalFinalOutputs(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Python {
		out.AddAll(n.srcs)
	}
}

func (n *PyLibrary) WriteMake(mf *makefile.Makefile) {
	n.WriteUserTarget(resourcePaths(n.srcs), mf)
}

// pyPackage is shared by py_egg and py_binary: both assemble the transitive
// Python source set plus their own sources into a single zipped artifact
// (spec §4.5 "Linker/packager" pattern applied to a scripting language).
type pyPackage struct {
	*Base
	srcs      []target.Resource
	mainEntry string
}

func (n *pyPackage) parseCommon(entry BuildEntry) error {
	srcs := entry.StringList("srcs")
	if len(srcs) == 0 {
		srcs = entry.StringList("py_sources")
	}
	for _, s := range srcs {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	n.mainEntry = entry.String("main")
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	return nil
}

// self is the embedding PyEgg/PyBinary: pyPackage itself doesn't implement
// Node (WriteMake lives on the embedder), so InputFiles needs the real node.
func (n *pyPackage) writeZipRule(self Node, mf *makefile.Makefile, desc, out string) {
	srcs := target.NewFileSet()
	srcs.AddAll(n.srcs)
	srcs.AddAll(InputFiles(self, DependencyFiles, Python))
	deps := srcs.Paths()
	r := mf.StartRule(out, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(out))))
	r.WriteUserEcho(desc, out)
	r.WriteCommand(fmt.Sprintf("rm -f %s", makefile.EscapeMakeRef(out)))
	for _, s := range srcs.Slice() {
		r.WriteCommand(fmt.Sprintf("zip -q %s %s", makefile.EscapeMakeRef(out), makefile.EscapeMakeRef(s.Path)))
	}
	mf.FinishRule(r)
}

// PyEgg produces a zipped `.egg` of the transitive Python sources, no
// top-level symlink: it's consumed by other nodes, not run directly.
type PyEgg struct{ pyPackage }

func NewPyEgg(t target.Info, in *core.Input) *PyEgg {
	return &PyEgg{pyPackage{Base: NewBase(t, in)}}
}

func (n *PyEgg) Kind() string { return "py_egg" }

func (n *PyEgg) Parse(entry BuildEntry) error { return n.parseCommon(entry) }

func (n *PyEgg) eggPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName+".egg")
}

func (n *PyEgg) LocalObjectFiles(lang Language, out *target.FileSet) {
	if lang == NoLang || lang == Python {
		out.Add(target.GeneratedResource(n.eggPath()))
	}
}

func (n *PyEgg) WriteMake(mf *makefile.Makefile) {
	egg := n.eggPath()
	n.writeZipRule(n, mf, "Packaging", egg)
	n.WriteUserTarget([]string{egg}, mf)
}

// PyBinary zips the transitive Python sources into an egg, writes a launcher
// shell script that runs the interpreter against that egg, and exposes the
// launcher at a stable path via a spawned TopSymlink subnode.
type PyBinary struct {
	pyPackage
	symlink *TopSymlink
}

func NewPyBinary(t target.Info, in *core.Input) *PyBinary {
	return &PyBinary{pyPackage: pyPackage{Base: NewBase(t, in)}}
}

func (n *PyBinary) Kind() string { return "py_binary" }

func (n *PyBinary) Parse(entry BuildEntry) error {
	if err := n.parseCommon(entry); err != nil {
		return err
	}
	linkPath := path.Join(core.MakeRef(core.BinDirVar), n.Target.Dir, n.Target.LocalName)
	n.symlink = NewTopSymlink(n.Target, n.Input, linkPath, target.GeneratedResource(n.binPath()))
	n.AddSubNode(n.symlink)
	return nil
}

// eggPath is the zipped transitive Python sources this binary launches out
// of, not the binary itself: the original py_binary.cc wraps its egg with a
// thin launcher script rather than producing a self-contained zipapp.
func (n *PyBinary) eggPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName+".egg")
}

// binPath is the launcher script TopSymlink exposes at the stable bin path.
func (n *PyBinary) binPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName)
}

func (n *PyBinary) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.symlink.LinkPath))
}

func (n *PyBinary) IncludeInAll() bool { return true }

// WriteMake mirrors py_binary.cc's LocalWriteMake: package the transitive
// sources into an egg, then emit a launcher script that points PYTHONPATH at
// it and invokes `python -m <main>` (main left blank runs the interpreter
// with no module, same as the original's empty py_default_module_ case).
func (n *PyBinary) WriteMake(mf *makefile.Makefile) {
	egg := n.eggPath()
	n.writeZipRule(n, mf, "Packaging", egg)

	bin := n.binPath()
	r := mf.StartRule(bin, []string{egg})
	moduleFlag := ""
	if n.mainEntry != "" {
		moduleFlag = "-m " + n.mainEntry
	}
	// moduleFlag is the user-declared "main" field, so it goes through
	// Escape as a real printf argument rather than being spliced into the
	// single-quoted format text directly.
	r.WriteCommand(fmt.Sprintf(
		"printf 'PYTHONPATH=$$(pwd)/$$(dirname $$0)/%s:$$PYTHONPATH python %%s \"$$@\"\\n' %s > %s",
		path.Base(egg), makefile.Escape(moduleFlag), makefile.EscapeMakeRef(bin)))
	r.WriteCommand(fmt.Sprintf("chmod 755 %s", makefile.EscapeMakeRef(bin)))
	mf.FinishRule(r)

	n.WriteUserTarget([]string{n.symlink.LinkPath}, mf)
}
