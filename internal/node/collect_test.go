package node

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// fakeNode is a minimal Node double for exercising the collection DFS
// without needing a real build-kind variant or a parsed build file.
type fakeNode struct {
	*Base
	name           string
	ownFiles       []target.Resource
	blockOwnOutput bool // IncludeDependencies(kind) returns false
	blockChild     map[Node]bool
}

func newFakeNode(name string) *fakeNode {
	t, _ := target.Parse("pkg", ":"+name)
	return &fakeNode{Base: NewBase(t, &core.Input{}), name: name}
}

func (n *fakeNode) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.ownFiles)
}

func (n *fakeNode) IncludeDependencies(kind CollectionKind, lang Language) bool {
	if n.blockOwnOutput {
		return false
	}
	return true
}

func (n *fakeNode) IncludeChildDependency(kind CollectionKind, lang Language, child Node) bool {
	if n.blockChild != nil && n.blockChild[child] {
		return false
	}
	return true
}

func TestFilesIncludesRootRegardlessOfItsOwnGate(t *testing.T) {
	target.ResetMakePathTokens()
	root := newFakeNode("root")
	root.ownFiles = []target.Resource{target.FromRootPath("root.go")}
	root.blockOwnOutput = true // would block if it were reached as a non-root

	files := Files(root, DependencyFiles, NoLang)
	assert.Len(t, files, 1)
	assert.Equal(t, "root.go", files[0].Path)
}

func TestFilesStopsPropagatingThroughGatedNode(t *testing.T) {
	target.ResetMakePathTokens()
	leaf := newFakeNode("leaf")
	leaf.ownFiles = []target.Resource{target.FromRootPath("leaf.go")}

	gate := newFakeNode("gate")
	gate.ownFiles = []target.Resource{target.FromRootPath("gate.go")}
	gate.blockOwnOutput = true
	gate.SetDependencies([]Node{leaf})

	root := newFakeNode("root")
	root.SetDependencies([]Node{gate})

	files := Files(root, DependencyFiles, NoLang)
	// gate itself is cut (its own IncludeDependencies is false), and the walk
	// never recurses past it, so leaf's contribution never surfaces either.
	assert.Empty(t, files)
}

func TestInputFilesExcludesRootsOwnContribution(t *testing.T) {
	target.ResetMakePathTokens()
	dep := newFakeNode("dep")
	dep.ownFiles = []target.Resource{target.FromRootPath("dep.go")}

	root := newFakeNode("root")
	root.ownFiles = []target.Resource{target.FromRootPath("root.go")}
	root.SetDependencies([]Node{dep})

	files := InputFiles(root, DependencyFiles, NoLang)
	assert.Len(t, files, 1)
	assert.Equal(t, "dep.go", files[0].Path)
}

func TestIncludeChildDependencyGatesTheEdge(t *testing.T) {
	target.ResetMakePathTokens()
	dep := newFakeNode("dep")
	dep.ownFiles = []target.Resource{target.FromRootPath("dep.go")}

	root := newFakeNode("root")
	root.SetDependencies([]Node{dep})
	root.blockChild = map[Node]bool{dep: true}

	files := Files(root, DependencyFiles, NoLang)
	assert.Empty(t, files)
}

func TestWalkVisitsDiamondDependencyOnce(t *testing.T) {
	target.ResetMakePathTokens()
	shared := newFakeNode("shared")
	shared.ownFiles = []target.Resource{target.FromRootPath("shared.go")}

	left := newFakeNode("left")
	left.SetDependencies([]Node{shared})
	right := newFakeNode("right")
	right.SetDependencies([]Node{shared})

	root := newFakeNode("root")
	root.SetDependencies([]Node{left, right})

	files := Files(root, DependencyFiles, NoLang)
	assert.Len(t, files, 1)
}

func TestEnvVarsLocalAssignmentWinsOverDependency(t *testing.T) {
	target.ResetMakePathTokens()
	dep := &fakeEnvNode{fakeNode: newFakeNode("dep"), env: []target.EnvEntry{{Name: "X", Value: "dep-value"}}}
	root := &fakeEnvNode{fakeNode: newFakeNode("root"), env: []target.EnvEntry{{Name: "X", Value: "root-value"}}}
	root.SetDependencies([]Node{dep})

	entries := EnvVars(root, NoLang)
	values := map[string]string{}
	for _, e := range entries {
		values[e.Name] = e.Value
	}
	assert.Equal(t, "root-value", values["X"])
}

type fakeEnvNode struct {
	*fakeNode
	env []target.EnvEntry
}

func (n *fakeEnvNode) LocalEnvVariables(lang Language, out *target.EnvMap) {
	for _, e := range n.env {
		out.SetIfAbsent(e.Name, e.Value)
	}
}
