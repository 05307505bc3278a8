package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// protoLangs maps a language name as it appears in a proto_library's
// `languages` field to the closed Language enum, so a consumer in a given
// language only ever pulls in the matching generated sources (spec §8's
// multi-language propagation testable property).
var protoLangs = map[string]Language{
	"cpp":    CPP,
	"c++":    CPP,
	"java":   Java,
	"python": Python,
	"py":     Python,
	"go":     Golang,
	"golang": Golang,
}

// ProtoGen is the subnode proto_library spawns once per target language
// during Parse (spec §4.6): it runs protoc for that one language and mints a
// touchfile the way gen_sh does, gating DEPENDENCY_FILES propagation through
// itself so consumers never see the .proto sources, only the generated
// output.
type ProtoGen struct {
	*Base
	lang  Language
	srcs  []target.Resource
	outs  []string
	touch target.Resource
}

func newProtoGen(parent target.Info, in *core.Input, langName string, srcs []target.Resource) *ProtoGen {
	t := parent.GetParallelTarget(parent.LocalName + "_" + langName + "_pb")
	lang := protoLangs[langName]
	n := &ProtoGen{Base: NewBase(t, in), lang: lang, srcs: srcs}
	for _, s := range srcs {
		rel := path.Base(s.Path)
		stem := rel[:len(rel)-len(path.Ext(rel))]
		n.outs = append(n.outs, protoOutName(stem, langName))
	}
	n.touch = target.Touchfile(core.MakeRef(core.ObjDirVar), t, "proto_"+langName)
	return n
}

func protoOutName(stem, langName string) string {
	switch langName {
	case "go", "golang":
		return stem + ".pb.go"
	case "python", "py":
		return stem + "_pb2.py"
	case "java":
		return stem + ".java"
	default:
		return stem + ".pb.cc"
	}
}

func (n *ProtoGen) Kind() string { return "proto_gen" }

func (n *ProtoGen) LocalDependencyFiles(lang Language, out *target.FileSet) {}

func (n *ProtoGen) IncludeDependencies(kind CollectionKind, lang Language) bool {
	return kind != DependencyFiles
}

func (n *ProtoGen) LocalFinalOutputs(lang Language, out *target.FileSet) {
	if lang != NoLang && lang != n.lang {
		return
	}
	out.Add(n.touch)
	genDir := path.Join(core.MakeRef(core.GenDirVar), n.Target.Dir)
	for _, o := range n.outs {
		out.Add(target.GeneratedResource(path.Join(genDir, o)))
	}
}

func (n *ProtoGen) LocalObjectFiles(lang Language, out *target.FileSet) {
	n.LocalFinalOutputs(lang, out)
}

func (n *ProtoGen) langFlag() string {
	switch n.lang {
	case Golang:
		return "go"
	case Python:
		return "python"
	case Java:
		return "java"
	default:
		return "cpp"
	}
}

func (n *ProtoGen) WriteMake(mf *makefile.Makefile) {
	genDir := path.Join(core.MakeRef(core.GenDirVar), n.Target.Dir)
	deps := resourcePaths(n.srcs)
	r := mf.StartRule(n.touch.Path, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(genDir)))
	r.WriteUserEcho("Generating", n.Target.FullPath())
	srcArgs := make([]string, len(n.srcs))
	for i, s := range n.srcs {
		srcArgs[i] = makefile.EscapeMakeRef(s.Path)
	}
	r.WriteCommand(fmt.Sprintf("protoc --%s_out=%s -I%s %s",
		n.langFlag(), makefile.EscapeMakeRef(genDir), makefile.EscapeMakeRef(n.Target.Dir),
		strings.Join(srcArgs, " ")))
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(n.touch.Path))))
	r.WriteCommand(fmt.Sprintf("touch %s", makefile.EscapeMakeRef(n.touch.Path)))
	mf.FinishRule(r)
	for _, o := range n.outs {
		mf.WriteRule(path.Join(genDir, o), []string{n.touch.Path})
	}
	n.WriteUserTarget([]string{n.touch.Path}, mf)
}

// ProtoLibrary fans out to one ProtoGen subnode per declared target
// language and exposes each through the normal dependency-gated propagation
// machinery, keyed by language so a CPP consumer never pulls in the Python
// subnode's output (spec §8 scenario 6).
type ProtoLibrary struct {
	*Base
	srcs []target.Resource
	gens []*ProtoGen
}

func NewProtoLibrary(t target.Info, in *core.Input) *ProtoLibrary {
	return &ProtoLibrary{Base: NewBase(t, in)}
}

func (n *ProtoLibrary) Kind() string { return "proto_library" }

func (n *ProtoLibrary) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	for _, s := range entry.StringList("srcs") {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
	}
	langs := entry.StringList("languages")
	if len(langs) == 0 {
		return core.NewError(core.MissingRequiredField, n.Target.FullPath(), "proto_library requires languages")
	}
	for _, l := range langs {
		gen := newProtoGen(n.Target, n.Input, l, n.srcs)
		n.gens = append(n.gens, gen)
		n.AddSubNode(gen)
		n.AddDependencyTarget(gen.Info())
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

func (n *ProtoLibrary) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
}

// IncludeChildDependency restricts propagation through each ProtoGen child
// to its own language, so collecting e.g. OBJECT_FILES for Golang skips the
// Python/Java/C++ generators' outputs entirely.
func (n *ProtoLibrary) IncludeChildDependency(kind CollectionKind, lang Language, child Node) bool {
	if gen, ok := child.(*ProtoGen); ok {
		return lang == NoLang || lang == gen.lang
	}
	return true
}

func (n *ProtoLibrary) WriteMake(mf *makefile.Makefile) {
	deps := make([]string, 0, len(n.gens))
	for _, g := range n.gens {
		deps = append(deps, g.touch.Path)
	}
	n.WriteUserTarget(deps, mf)
}
