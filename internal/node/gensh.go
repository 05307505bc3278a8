package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// envPassthrough is the fixed set of environment variables the gen_sh
// wrapper propagates into the recipe shell, per spec §6.
var envPassthrough = []string{
	"CC", "CXX", "CXX_GCC", "CC_GCC", "CXXFLAGS", "BASIC_CXXFLAGS",
	"CFLAGS", "BASIC_CFLAGS", "LDFLAGS", "MAKE",
}

// GenSh is the "Opaque recipe" variant (spec §4.5): it runs an arbitrary
// shell command and declares its outputs (`outs`). It blocks DEPENDENCY_FILES
// propagation through itself: a DEPENDENCY_FILES collection that reaches it
// gathers nothing from it or from anything behind it, neither its input_files
// nor its touchfile. The touchfile is exposed through FINAL_OUTPUTS, the
// rules for its declared outs, and its user target.
type GenSh struct {
	*Base
	inputFiles []target.Resource
	outs       []string
	buildCmd   string
	env        []target.EnvEntry
	touch      target.Resource
}

// NewGenSh constructs an empty GenSh for t.
func NewGenSh(t target.Info, in *core.Input) *GenSh {
	return &GenSh{Base: NewBase(t, in)}
}

func (n *GenSh) Kind() string { return "gen_sh" }

func (n *GenSh) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	for _, f := range entry.StringList("input_files") {
		n.inputFiles = append(n.inputFiles, target.FromLocalPath(n.Target.Dir, f))
	}
	if err := n.checkSources(n.inputFiles); err != nil {
		return err
	}
	for _, d := range entry.StringList("deps") {
		t, err := target.Parse(n.Target.Dir, d)
		if err != nil {
			return core.Wrap(core.MalformedTarget, n.Target.FullPath(), err)
		}
		n.AddDependencyTarget(t)
	}
	n.outs = entry.StringList("outs")
	if !entry.Has("build_cmd") && !entry.Has("cmd") {
		return core.NewError(core.MissingRequiredField, n.Target.FullPath(), "gen_sh requires build_cmd or cmd")
	}
	n.buildCmd = firstNonEmpty(entry.String("build_cmd"), entry.String("cmd"))
	for _, kv := range entry.StringList("env") {
		if idx := strings.IndexByte(kv, '='); idx != -1 {
			n.env = append(n.env, target.EnvEntry{Name: kv[:idx], Value: kv[idx+1:]})
		}
	}
	n.touch = target.Touchfile(core.MakeRef(core.ObjDirVar), n.Target, "gensh")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// IncludeDependencies blocks DEPENDENCY_FILES propagation through this node:
// downstream DEPENDENCY_FILES collections that reach gen_sh via the DAG get
// none of its input_files, its further dependencies or its touchfile.
func (n *GenSh) IncludeDependencies(kind CollectionKind, lang Language) bool {
	return kind != DependencyFiles
}

func (n *GenSh) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(n.touch)
	for _, o := range n.outs {
		out.Add(target.GeneratedResource(path.Join(core.MakeRef(core.GenDirVar), n.Target.Dir, o)))
	}
}

func (n *GenSh) WriteMake(mf *makefile.Makefile) {
	deps := make([]string, 0, len(n.inputFiles)+4)
	for _, f := range n.inputFiles {
		deps = append(deps, f.Path)
	}
	for _, f := range InputFiles(n, DependencyFiles, NoLang) {
		deps = append(deps, f.Path)
	}
	genDir := path.Join(core.MakeRef(core.GenDirVar), n.Target.Dir)
	logfile := path.Join(core.MakeRef(core.ObjDirVar), n.Target.Dir, "."+n.Target.LocalName+".gensh.log")

	r := mf.StartRule(n.touch.Path, deps)
	if n.buildCmd != "" {
		r.WriteCommand(fmt.Sprintf("mkdir -p %s %s", makefile.EscapeMakeRef(genDir), makefile.EscapeMakeRef(path.Dir(logfile))))
		r.WriteUserEcho("Generating", n.Target.FullPath())
		wrapped := n.shellWrapper(genDir, logfile)
		if n.Input.SilentGenSh {
			r.WriteCommandSilent(wrapped)
		} else {
			r.WriteCommand(wrapped)
		}
	}
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(n.touch.Path))))
	r.WriteCommand(fmt.Sprintf("touch %s", makefile.EscapeMakeRef(n.touch.Path)))
	mf.FinishRule(r)

	// Each declared `out` gets a trivial dependency-only rule pointing at the touchfile.
	for _, o := range n.outs {
		outPath := path.Join(genDir, o)
		mf.WriteRule(outPath, []string{n.touch.Path})
	}
	n.WriteUserTarget([]string{n.touch.Path}, mf)
}

// shellWrapper builds the recipe command that cds into the target's
// generated-file directory before evaluating the user's build_cmd. The cd
// target is anchored at $(ROOT_DIR) (spec §6) so that after it, any
// repo-relative path the command references (e.g. $(ROOT_DIR)/src/...) still
// resolves; without that anchor the command would be running relative to
// genDir, not the repo root.
func (n *GenSh) shellWrapper(genDir, logfile string) string {
	var b strings.Builder
	b.WriteString("( cd ")
	b.WriteString(makefile.EscapeMakeRef(path.Join("$(ROOT_DIR)", genDir)))
	b.WriteString("; ")
	// Re-export the managed directories as absolute, ROOT_DIR-joined paths so
	// the command can reach files under them regardless of its cwd, the same
	// set gen_sh.cc's WriteCommand exports (GEN_DIR, OBJ_DIR, SRC_DIR, PKG_DIR).
	for _, d := range []struct {
		name, ref string
	}{
		{"GEN_DIR", n.GenDir()},
		{"OBJ_DIR", n.ObjDir()},
		{"SRC_DIR", n.SrcDir()},
		{"PKG_DIR", n.PkgDir()},
	} {
		fmt.Fprintf(&b, "export %s=%s; ", d.name, makefile.EscapeMakeRef(path.Join("$(ROOT_DIR)", d.ref)))
	}
	for _, e := range envPassthrough {
		fmt.Fprintf(&b, "export %s=\"$(%s)\"; ", e, e)
	}
	for _, e := range n.env {
		fmt.Fprintf(&b, "export %s=%s; ", e.Name, makefile.Escape(e.Value))
	}
	b.WriteString("eval ")
	b.WriteString(makefile.Escape(n.buildCmd))
	b.WriteString(" ) > ")
	b.WriteString(makefile.EscapeMakeRef(logfile))
	b.WriteString(" 2>&1 || (cat ")
	b.WriteString(makefile.EscapeMakeRef(logfile))
	b.WriteString("; exit 1)")
	return b.String()
}
