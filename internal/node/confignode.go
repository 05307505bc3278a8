package node

import (
	"strings"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// languageFromString maps a build-file language field to the closed Language
// enum. An unrecognised or empty value maps to NoLang, meaning "applies
// under every language".
func languageFromString(s string) Language {
	switch s {
	case "c":
		return C
	case "cpp", "c++":
		return CPP
	case "java":
		return Java
	case "python", "py":
		return Python
	case "go", "golang":
		return Golang
	}
	return NoLang
}

// ConfigNode is a language-agnostic bag of flags/include dirs/system
// dependencies other nodes can depend on to pick up a shared toolchain
// configuration, without contributing any files of its own. It is a pure
// "Collector" with no on-disk output, so it's excluded from `all`.
type ConfigNode struct {
	*Base
	lang         Language
	compileFlags []string
	linkFlags    []string
	includeDirs  []string
	systemDeps   []string
	debugFlags   []string
	debugVar     *makefile.Variable
}

// NewConfigNode constructs an empty ConfigNode for t.
func NewConfigNode(t target.Info, in *core.Input) *ConfigNode {
	return &ConfigNode{Base: NewBase(t, in)}
}

func (n *ConfigNode) Kind() string { return "confignode" }

func (n *ConfigNode) Parse(entry BuildEntry) error {
	n.lang = languageFromString(entry.String("language"))
	n.compileFlags = entry.StringList("compile_flags")
	n.linkFlags = entry.StringList("link_flags")
	n.includeDirs = entry.StringList("include_dirs")
	n.systemDeps = entry.StringList("system_dependencies")
	n.debugFlags = entry.StringList("debug_compile_flags")
	if len(n.debugFlags) > 0 {
		n.debugVar = makefile.NewVariable("CFLAGS_DEBUG." + n.Target.MakePath())
		n.debugVar.AddCondition("$(DEBUG),1", strings.Join(n.debugFlags, " "), "")
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

func (n *ConfigNode) matches(lang Language) bool {
	return n.lang == NoLang || lang == NoLang || n.lang == lang
}

func (n *ConfigNode) LocalCompileFlags(lang Language, out *target.StringSet) {
	if n.matches(lang) {
		out.AddAll(n.compileFlags)
		if n.debugVar != nil {
			out.Add(n.debugVar.Ref())
		}
	}
}

func (n *ConfigNode) LocalLinkFlags(lang Language, out *target.StringSet) {
	if n.matches(lang) {
		out.AddAll(n.linkFlags)
	}
}

func (n *ConfigNode) LocalIncludeDirs(lang Language, out *target.StringSet) {
	if n.matches(lang) {
		out.AddAll(n.includeDirs)
	}
}

func (n *ConfigNode) LocalSystemDependencies(lang Language, out *target.StringSet) {
	if n.matches(lang) {
		out.AddAll(n.systemDeps)
	}
}

func (n *ConfigNode) IncludeInAll() bool { return false }

func (n *ConfigNode) WriteMake(mf *makefile.Makefile) {
	if n.debugVar != nil {
		n.debugVar.WriteTo(mf)
	}
	n.WriteUserTarget(nil, mf)
}
