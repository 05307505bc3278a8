package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// ccLanguageOf inspects a set of source paths and decides whether they're a
// C or a C++ library, defaulting to C when nothing looks like C++. Mixing
// the two within a single cc_library isn't supported, matching the
// assumption the teacher's own cc build definitions make.
func ccLanguageOf(srcs []string) Language {
	for _, s := range srcs {
		switch path.Ext(s) {
		case ".cc", ".cpp", ".cxx", ".hpp", ".hh":
			return CPP
		}
	}
	return C
}

func ccCompilerVar(lang Language) string {
	if lang == CPP {
		return "CXX"
	}
	return "CC"
}

func ccFlagsVar(lang Language) string {
	if lang == CPP {
		return "CXXFLAGS"
	}
	return "CFLAGS"
}

// ccBase factors the fields and parsing shared by cc_library, cc_binary and
// cc_test (spec §3's cc_* node kinds all build on the same Compiler pattern).
type ccBase struct {
	*Base
	srcs      []target.Resource
	hdrs      []target.Resource
	lang      Language
	compFlags []string
	linkFlags []string
	includes  []string
	sysDeps   []string
}

func (n *ccBase) parseCommon(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	srcNames := entry.StringList("srcs")
	for _, s := range srcNames {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	for _, h := range entry.StringList("hdrs") {
		n.hdrs = append(n.hdrs, target.FromLocalPath(n.Target.Dir, h))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
	}
	if err := n.checkSources(n.hdrs); err != nil {
		return err
	}
	n.lang = ccLanguageOf(srcNames)
	n.compFlags = entry.StringList("compiler_flags")
	n.linkFlags = entry.StringList("linker_flags")
	n.includes = entry.StringList("include_dirs")
	n.sysDeps = entry.StringList("system_deps")
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	return nil
}

func (n *ccBase) LocalCompileFlags(lang Language, out *target.StringSet) {
	if lang == NoLang || lang == n.lang {
		out.AddAll(n.compFlags)
	}
}

func (n *ccBase) LocalLinkFlags(lang Language, out *target.StringSet) {
	if lang == NoLang || lang == n.lang {
		out.AddAll(n.linkFlags)
	}
}

func (n *ccBase) LocalIncludeDirs(lang Language, out *target.StringSet) {
	if lang == NoLang || lang == n.lang {
		out.Add(n.Target.Dir)
		out.AddAll(n.includes)
	}
}

func (n *ccBase) LocalSystemDependencies(lang Language, out *target.StringSet) {
	if lang == NoLang || lang == n.lang {
		out.AddAll(n.sysDeps)
	}
}

// objectPaths returns this node's own compiled objects (not the transitive set),
// compiling srcs into objDir as a side effect of WriteMake.
func (n *ccBase) objectPaths() []string {
	out := make([]string, len(n.srcs))
	for i, s := range n.srcs {
		out[i] = objectPathFor(n.ObjDir(), n.Target.Dir, s.Path, ".o")
	}
	return out
}

// writeCompileRules emits one compile rule per source file through the
// compileSource helper also used by cc_embed_data.
// self is the embedding CCLibrary/CCBinary/CCTest: ccBase itself doesn't
// implement Node (WriteMake lives on the embedder), so the collection
// helpers need the real node, not the receiver.
func (n *ccBase) writeCompileRules(self Node, mf *makefile.Makefile) {
	compileFlags := Strings(self, CompileFlags, n.lang)
	includeDirs := Strings(self, IncludeDirs, n.lang)
	cxxVar := ccCompilerVar(n.lang)
	flagsVar := ccFlagsVar(n.lang)
	hdrPaths := resourcePaths(n.hdrs)
	for _, src := range n.srcs {
		obj := objectPathFor(n.ObjDir(), n.Target.Dir, src.Path, ".o")
		n.compileOne(mf, src.Path, obj, cxxVar, flagsVar, compileFlags, includeDirs, hdrPaths)
	}
}

func (n *ccBase) compileOne(mf *makefile.Makefile, src, obj, cxxVar, flagsVar string, compileFlags, includeDirs, extraDeps []string) {
	compileSource(mf, n.Input.SilentMake, "Compiling", src, obj, extraDeps, func(src, obj string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "$(%s) $(%s)", cxxVar, flagsVar)
		for _, f := range compileFlags {
			b.WriteByte(' ')
			b.WriteString(makefile.EscapeMakeRef(f))
		}
		for _, d := range includeDirs {
			fmt.Fprintf(&b, " -I%s", makefile.EscapeMakeRef(d))
		}
		fmt.Fprintf(&b, " -c %s -o %s", makefile.EscapeMakeRef(src), makefile.EscapeMakeRef(obj))
		return b.String()
	})
}

// CCLibrary is the cc_library Compiler-pattern node: it compiles its own
// sources to objects and contributes them to OBJECT_FILES, but produces no
// final binary of its own.
type CCLibrary struct{ ccBase }

func NewCCLibrary(t target.Info, in *core.Input) *CCLibrary {
	return &CCLibrary{ccBase{Base: NewBase(t, in)}}
}

func (n *CCLibrary) Kind() string { return "cc_library" }

func (n *CCLibrary) Parse(entry BuildEntry) error { return n.parseCommon(entry) }

func (n *CCLibrary) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
	out.AddAll(n.hdrs)
}

func (n *CCLibrary) LocalObjectFiles(lang Language, out *target.FileSet) {
	if lang != NoLang && lang != n.lang {
		return
	}
	for _, p := range n.objectPaths() {
		out.Add(target.GeneratedResource(p))
	}
}

func (n *CCLibrary) WriteMake(mf *makefile.Makefile) {
	n.writeCompileRules(n, mf)
	n.WriteUserTarget(n.objectPaths(), mf)
}

// ccBinPath is the deterministic object-dir path a linked cc_binary/cc_test
// occupies before being exposed at its stable symlink path. Static, so it
// can be computed during Parse, before any compiling happens.
func (n *ccBase) ccBinPath() string {
	return path.Join(n.ObjDir(), n.Target.LocalName)
}

// spawnSymlink creates this node's TopSymlink subnode during Parse, per
// spec §4.6: the parser hoists subnodes into the pool immediately after
// Parse returns, so it must exist before WriteMake ever runs.
func (n *ccBase) spawnSymlink() *TopSymlink {
	linkPath := path.Join(core.MakeRef(core.BinDirVar), n.Target.Dir, n.Target.LocalName)
	sym := NewTopSymlink(n.Target, n.Input, linkPath, target.GeneratedResource(n.ccBinPath()))
	n.AddSubNode(sym)
	return sym
}

// ccLink is the shared Linker/packager emission for cc_binary and cc_test:
// link the transitive object set into the single executable the spawned
// TopSymlink subnode points at (spec §4.5). self is the embedding
// CCBinary/CCTest, passed through to the Node-typed collection helpers for
// the same reason writeCompileRules needs it.
func ccLink(self Node, n *ccBase, mf *makefile.Makefile) {
	n.writeCompileRules(self, mf)
	objs := target.NewFileSet()
	for _, p := range n.objectPaths() {
		objs.Add(target.GeneratedResource(p))
	}
	objs.AddAll(InputFiles(self, ObjectFiles, n.lang))
	linkFlags := Strings(self, LinkFlags, n.lang)
	cxxVar := ccCompilerVar(n.lang)

	bin := n.ccBinPath()
	writeLinkRule(mf, n.Input.SilentMake, "Linking", bin, objs.Slice(), nil, func(objPaths []string, out string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "$(%s) -o %s", cxxVar, makefile.EscapeMakeRef(out))
		for _, o := range objPaths {
			b.WriteByte(' ')
			b.WriteString(makefile.EscapeMakeRef(o))
		}
		for _, f := range linkFlags {
			b.WriteByte(' ')
			b.WriteString(makefile.EscapeMakeRef(f))
		}
		return b.String()
	})
}

// CCBinary is the cc_binary Linker-pattern node.
type CCBinary struct {
	ccBase
	symlink *TopSymlink
}

func NewCCBinary(t target.Info, in *core.Input) *CCBinary {
	return &CCBinary{ccBase: ccBase{Base: NewBase(t, in)}}
}

func (n *CCBinary) Kind() string { return "cc_binary" }

func (n *CCBinary) Parse(entry BuildEntry) error {
	if err := n.parseCommon(entry); err != nil {
		return err
	}
	n.symlink = n.spawnSymlink()
	return nil
}

func (n *CCBinary) LocalObjectFiles(lang Language, out *target.FileSet) {}

func (n *CCBinary) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.symlink.LinkPath))
}

func (n *CCBinary) IncludeInAll() bool { return true }

func (n *CCBinary) WriteMake(mf *makefile.Makefile) {
	ccLink(n, &n.ccBase, mf)
	n.WriteUserTarget([]string{n.symlink.LinkPath}, mf)
}

// CCTest is identical to CCBinary except it's excluded from `all` and
// included in `tests` (spec §3: IncludeInTests()).
type CCTest struct {
	ccBase
	symlink *TopSymlink
}

func NewCCTest(t target.Info, in *core.Input) *CCTest {
	return &CCTest{ccBase: ccBase{Base: NewBase(t, in)}}
}

func (n *CCTest) Kind() string { return "cc_test" }

func (n *CCTest) Parse(entry BuildEntry) error {
	if err := n.parseCommon(entry); err != nil {
		return err
	}
	n.symlink = n.spawnSymlink()
	return nil
}

func (n *CCTest) LocalObjectFiles(lang Language, out *target.FileSet) {}

func (n *CCTest) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.symlink.LinkPath))
}

func (n *CCTest) IncludeInAll() bool   { return false }
func (n *CCTest) IncludeInTests() bool { return true }

func (n *CCTest) WriteMake(mf *makefile.Makefile) {
	ccLink(n, &n.ccBase, mf)
	n.WriteUserTarget([]string{n.symlink.LinkPath}, mf)
}

// CCEmbedData is a mini-Compiler that turns a single data file into a
// linkable object exposing its bytes as a symbol, the way please's own
// cc_embed_binary rule wraps objcopy.
type CCEmbedData struct {
	*Base
	src target.Resource
}

func NewCCEmbedData(t target.Info, in *core.Input) *CCEmbedData {
	return &CCEmbedData{Base: NewBase(t, in)}
}

func (n *CCEmbedData) Kind() string { return "cc_embed_data" }

func (n *CCEmbedData) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	src := entry.String("src")
	if src == "" {
		list := entry.StringList("srcs")
		if len(list) > 0 {
			src = list[0]
		}
	}
	n.src = target.FromLocalPath(n.Target.Dir, src)
	if err := n.checkSources([]target.Resource{n.src}); err != nil {
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

func (n *CCEmbedData) objectPath() string {
	return objectPathFor(n.ObjDir(), n.Target.Dir, n.src.Path, ".o")
}

func (n *CCEmbedData) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.Add(n.src)
}

func (n *CCEmbedData) LocalObjectFiles(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.objectPath()))
}

func (n *CCEmbedData) WriteMake(mf *makefile.Makefile) {
	obj := n.objectPath()
	compileSource(mf, n.Input.SilentMake, "Embedding", n.src.Path, obj, nil, func(src, obj string) string {
		return fmt.Sprintf("ld -r -b binary -o %s %s", makefile.EscapeMakeRef(obj), makefile.EscapeMakeRef(src))
	})
	n.WriteUserTarget([]string{obj}, mf)
}
