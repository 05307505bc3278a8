package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/node"
	"github.com/LuminateWireless/repobuild/internal/target"
)

func writeBuildFile(t *testing.T, rootDir, dir, content string) {
	t.Helper()
	full := filepath.Join(rootDir, dir)
	require.NoError(t, os.MkdirAll(full, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(full, BuildFileName), []byte(content), 0644))
}

func testInputAt(rootDir string) *core.Input {
	return core.NewInput(core.DefaultConfiguration(), rootDir, ".", false, false)
}

func TestParseResolvesDependencyAcrossPackages(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "src/core", `
cc_library(lib) {
    srcs = a.cc
}
`)
	writeBuildFile(t, root, "src/bin", `
cc_binary(main) {
    srcs = main.cc
    deps = //src/core:lib
}
`)

	pool, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//src/bin:main"})
	require.NoError(t, err)

	main, ok := pool.Get("//src/bin:main")
	require.True(t, ok)
	require.Len(t, main.Dependencies(), 1)
	assert.Equal(t, "//src/core:lib", main.Dependencies()[0].Info().FullPath())
}

func TestParseHoistsSpawnedSubnodesIntoPool(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "src/bin", `
cc_binary(main) {
    srcs = main.cc
}
`)

	pool, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//src/bin:main"})
	require.NoError(t, err)

	_, ok := pool.Get("//src/bin:main_symlink")
	assert.True(t, ok, "the spawned TopSymlink subnode must be hoisted into the pool")
}

func TestParseUnknownDependencyTargetFails(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "src/bin", `
cc_binary(main) {
    srcs = main.cc
    deps = //src/core:missing
}
`)

	_, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//src/bin:main"})
	assert.Error(t, err)
}

func TestParseUnknownSeedTargetFails(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	_, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//nope:nope"})
	assert.Error(t, err)
}

func TestParseMalformedDependencyTokenFails(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "src/bin", `
cc_binary(main) {
    srcs = main.cc
    deps = ../escape
}
`)
	_, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//src/bin:main"})
	assert.Error(t, err)
}

func TestParseWildcardExpandsEveryTarget(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "a", `
filegroup(one) {
    srcs = x.txt
}
`)
	writeBuildFile(t, root, "b", `
filegroup(two) {
    srcs = y.txt
}
`)

	pool, err := Parse(testInputAt(root), node.NewRegistry(), []string{WildcardToken})
	require.NoError(t, err)

	_, ok1 := pool.Get("//a:one")
	_, ok2 := pool.Get("//b:two")
	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestParseMarksOnlySeedsAsInputNodes(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "src/core", `
cc_library(lib) {
    srcs = a.cc
}
`)
	writeBuildFile(t, root, "src/bin", `
cc_binary(main) {
    srcs = main.cc
    deps = //src/core:lib
}
`)

	pool, err := Parse(testInputAt(root), node.NewRegistry(), []string{"//src/bin:main"})
	require.NoError(t, err)

	inputs := pool.InputNodes()
	require.Len(t, inputs, 1)
	assert.Equal(t, "//src/bin:main", inputs[0].Info().FullPath())
}
