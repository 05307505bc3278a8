package node

import "github.com/LuminateWireless/repobuild/internal/target"

// collector abstracts over the three "accumulate a value per language" shapes
// (FileSet, StringSet, EnvMap) so the single DFS in walk can drive all
// of them uniformly.
type collector interface {
	// local invokes the right Local* hook on n and merges its contribution.
	local(n Node, lang Language)
}

type fileCollector struct {
	kind CollectionKind
	out  *target.FileSet
}

func (c *fileCollector) local(n Node, lang Language) {
	switch c.kind {
	case DependencyFiles:
		n.LocalDependencyFiles(lang, c.out)
	case ObjectFiles:
		n.LocalObjectFiles(lang, c.out)
	case FinalOutputs:
		n.LocalFinalOutputs(lang, c.out)
	}
}

type stringCollector struct {
	kind CollectionKind
	out  *target.StringSet
}

func (c *stringCollector) local(n Node, lang Language) {
	switch c.kind {
	case LinkFlags:
		n.LocalLinkFlags(lang, c.out)
	case CompileFlags:
		n.LocalCompileFlags(lang, c.out)
	case IncludeDirs:
		n.LocalIncludeDirs(lang, c.out)
	case SystemDependencies:
		n.LocalSystemDependencies(lang, c.out)
	}
}

type envCollector struct {
	out *target.EnvMap
}

func (c *envCollector) local(n Node, lang Language) {
	n.LocalEnvVariables(lang, c.out)
}

// walk performs the DFS described in spec §4.4's "Transitive collection
// algorithm". The literal root of a given collection (the node Files/Strings
// /EnvVars was called on) always contributes its own local output (step 1).
// Every node reached afterwards via dependencies is gated by its own
// IncludeDependencies: returning false means it contributes nothing for this
// (kind, lang) and the walk does not propagate further through it (this is
// how a gen_sh node cuts DEPENDENCY_FILES propagation and substitutes its
// touchfile instead). IncludeChildDependency gates the edge itself. visited
// prevents revisiting the same node twice in a single collection (the DAG
// can have diamond shapes).
func walk(n Node, lang Language, c collector, isRoot bool, visited map[Node]bool) {
	if visited[n] {
		return
	}
	visited[n] = true
	kind := kindOf(c)
	if !isRoot && !n.IncludeDependencies(kind, lang) {
		return
	}
	c.local(n, lang)
	for _, dep := range n.Dependencies() {
		if !n.IncludeChildDependency(kind, lang, dep) {
			continue
		}
		walk(dep, lang, c, false, visited)
	}
}

func kindOf(c collector) CollectionKind {
	switch v := c.(type) {
	case *fileCollector:
		return v.kind
	case *stringCollector:
		return v.kind
	case *envCollector:
		return EnvVariables
	}
	return DependencyFiles
}

// Files computes the transitive file collection (DEPENDENCY_FILES,
// OBJECT_FILES or FINAL_OUTPUTS) for a node and language, starting with the
// node's own local output (spec §4.4 step 1-4).
func Files(n Node, kind CollectionKind, lang Language) []target.Resource {
	out := target.NewFileSet()
	walk(n, lang, &fileCollector{kind: kind, out: out}, true, map[Node]bool{})
	return out.Slice()
}

// InputFiles is as Files but starts from n's dependencies, excluding n's own
// local contribution — what a variant calls to build its own rule's
// prerequisite list (spec §4.4, "upward" helpers).
func InputFiles(n Node, kind CollectionKind, lang Language) []target.Resource {
	out := target.NewFileSet()
	visited := map[Node]bool{n: true}
	for _, dep := range n.Dependencies() {
		if !n.IncludeChildDependency(kind, lang, dep) {
			continue
		}
		walk(dep, lang, &fileCollector{kind: kind, out: out}, false, visited)
	}
	return out.Slice()
}

// Strings computes the transitive string collection (LINK_FLAGS,
// COMPILE_FLAGS, INCLUDE_DIRS or SYSTEM_DEPENDENCIES).
func Strings(n Node, kind CollectionKind, lang Language) []string {
	out := target.NewStringSet()
	walk(n, lang, &stringCollector{kind: kind, out: out}, true, map[Node]bool{})
	return out.Slice()
}

// InputStrings is the upward-starting-from-dependencies counterpart of Strings.
func InputStrings(n Node, kind CollectionKind, lang Language) []string {
	out := target.NewStringSet()
	visited := map[Node]bool{n: true}
	for _, dep := range n.Dependencies() {
		if !n.IncludeChildDependency(kind, lang, dep) {
			continue
		}
		walk(dep, lang, &stringCollector{kind: kind, out: out}, false, visited)
	}
	return out.Slice()
}

// EnvVars computes the transitive environment map: this node's own
// assignments always win over anything contributed by a dependency, however
// deep (spec §4.4 step 3: "downstream writes do not override local
// assignments").
func EnvVars(n Node, lang Language) []target.EnvEntry {
	out := target.NewEnvMap()
	walk(n, lang, &envCollector{out: out}, true, map[Node]bool{})
	return out.Entries()
}
