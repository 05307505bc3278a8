package generate

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/parse"
	"github.com/LuminateWireless/repobuild/internal/target"
)

func writeBuildFile(t *testing.T, rootDir, dir, content string) {
	t.Helper()
	full := filepath.Join(rootDir, dir)
	require.NoError(t, os.MkdirAll(full, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(full, parse.BuildFileName), []byte(content), 0644))
}

func testInputAt(rootDir string) *core.Input {
	return core.NewInput(core.DefaultConfiguration(), rootDir, ".", false, false)
}

var genIDLine = regexp.MustCompile(`(?m)^# generation-id:.*\n`)

func stripGenID(s string) string {
	return genIDLine.ReplaceAllString(s, "")
}

func TestGenerateEndToEndProducesExpectedRules(t *testing.T) {
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

	out, err := Generate(testInputAt(root), []string{"//src/bin:main"})
	require.NoError(t, err)

	assert.Contains(t, out, "all:")
	assert.Contains(t, out, "tests:")
	assert.Contains(t, out, "clean:")
	assert.Contains(t, out, "install:")
	assert.Contains(t, out, "licenses:")
	assert.Contains(t, out, ".DEFAULT_GOAL := all")
	assert.Contains(t, out, "$(CXX) $(CXXFLAGS)")

	rootDirIdx := strings.Index(out, "ROOT_DIR := $(shell pwd)")
	objDirIdx := strings.Index(out, "OBJ_DIR := obj")
	libRuleIdx := strings.Index(out, "$(OBJ_DIR)/src/core/a.o:")
	binRuleIdx := strings.Index(out, "$(OBJ_DIR)/src/bin/main:")
	require.GreaterOrEqual(t, rootDirIdx, 0, "WriteMakeHead must define $(ROOT_DIR)")
	require.GreaterOrEqual(t, objDirIdx, 0, "WriteMakeHead must define $(OBJ_DIR)")
	require.Greater(t, libRuleIdx, objDirIdx, "$(OBJ_DIR) must be defined before any rule references it")
	require.Greater(t, binRuleIdx, libRuleIdx, "a dependency's rule must precede the rule that depends on it")
}

func TestGenerateIsDeterministicModuloGenerationID(t *testing.T) {
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

	out1, err := Generate(testInputAt(root), []string{"//src/bin:main"})
	require.NoError(t, err)
	target.ResetMakePathTokens()
	out2, err := Generate(testInputAt(root), []string{"//src/bin:main"})
	require.NoError(t, err)

	assert.Equal(t, stripGenID(out1), stripGenID(out2))
}

func TestGenerateDetectsDependencyCycle(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "a", `
cc_library(a) {
    srcs = a.cc
    deps = //b:b
}
`)
	writeBuildFile(t, root, "b", `
cc_library(b) {
    srcs = b.cc
    deps = //a:a
}
`)

	_, err := Generate(testInputAt(root), []string{"//a:a"})
	assert.Error(t, err)
}

func TestProcessOrderVisitsDiamondDependencyOnce(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "shared", `
cc_library(shared) {
    srcs = s.cc
}
`)
	writeBuildFile(t, root, "left", `
cc_library(left) {
    srcs = l.cc
    deps = //shared:shared
}
`)
	writeBuildFile(t, root, "right", `
cc_library(right) {
    srcs = r.cc
    deps = //shared:shared
}
`)
	writeBuildFile(t, root, "top", `
cc_library(top) {
    srcs = t.cc
    deps = //left:left
    deps = //right:right
}
`)

	out, err := Generate(testInputAt(root), []string{"//top:top"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "shared/s.o:"))
}

func TestGenerateExcludesTestsFromAllButIncludesInTests(t *testing.T) {
	target.ResetMakePathTokens()
	root := t.TempDir()
	writeBuildFile(t, root, "pkg", `
cc_test(mytest) {
    srcs = t.cc
}
`)

	out, err := Generate(testInputAt(root), []string{"//pkg:mytest"})
	require.NoError(t, err)

	allLine := lineStartingWith(out, "all:")
	testsLine := lineStartingWith(out, "tests:")
	require.NotEmpty(t, testsLine)
	assert.NotContains(t, allLine, "mytest_symlink")
	assert.Contains(t, testsLine, "pkg_mytest")
}

func lineStartingWith(text, prefix string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}
