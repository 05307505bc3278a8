package node

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

func testInput() *core.Input {
	return core.NewInput(core.DefaultConfiguration(), "/repo", ".", false, false)
}

func TestCCLanguageOfDefaultsToC(t *testing.T) {
	assert.Equal(t, C, ccLanguageOf([]string{"a.c", "b.h"}))
}

func TestCCLanguageOfDetectsCPP(t *testing.T) {
	assert.Equal(t, CPP, ccLanguageOf([]string{"a.c", "b.cc"}))
}

func TestCCLibraryParseAndObjectFiles(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":lib")
	n := NewCCLibrary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{
		"srcs": {"a.cc"}, "hdrs": {"a.h"},
	}}))

	out := target.NewFileSet()
	n.LocalObjectFiles(CPP, out)
	require.Len(t, out.Slice(), 1)
	assert.Contains(t, out.Slice()[0].Path, "a.o")
}

func TestCCLibraryObjectFilesGatedByLanguage(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":lib")
	n := NewCCLibrary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"a.cc"}}}))

	out := target.NewFileSet()
	n.LocalObjectFiles(Java, out)
	assert.Empty(t, out.Slice())
}

func TestCCBinarySpawnsSymlinkDuringParse(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":bin")
	n := NewCCBinary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"main.cc"}}}))

	// The subnode must already be registered before WriteMake ever runs,
	// since the parser hoists subnodes immediately after Parse returns.
	subs := n.Subnodes()
	require.Len(t, subs, 1)
	assert.Equal(t, "top_symlink", subs[0].Kind())
	assert.NotNil(t, n.symlink)
}

func TestCCBinaryFinalOutputIsSymlinkPath(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":bin")
	n := NewCCBinary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"main.cc"}}}))

	out := target.NewFileSet()
	n.LocalFinalOutputs(NoLang, out)
	require.Len(t, out.Slice(), 1)
	assert.Equal(t, n.symlink.LinkPath, out.Slice()[0].Path)
}

func TestCCTestIncludedInTestsNotAll(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":test")
	n := NewCCTest(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"t.cc"}}}))
	assert.False(t, n.IncludeInAll())
	assert.True(t, n.IncludeInTests())
}

func TestCCLibraryWriteMakeEmitsCompileRule(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":lib")
	n := NewCCLibrary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"a.cc"}}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.Contains(t, out, "$(CXX) $(CXXFLAGS)")
	assert.Contains(t, out, "-c")
	assert.Contains(t, out, "$(OBJ_DIR)/src/core/a.o", "object path must reference the $(OBJ_DIR) make variable, not a literal directory")
	ruleIdx := strings.Index(out, "$(OBJ_DIR)/src/core/a.o:")
	depIdx := strings.Index(out, "mkdir -p $(OBJ_DIR)/src/core")
	require.GreaterOrEqual(t, ruleIdx, 0)
	require.Greater(t, depIdx, ruleIdx, "recipe referencing the rule's own target must come after the rule line")
}

func TestCCEmbedDataLinksWithLd(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("src/core", ":data")
	n := NewCCEmbedData(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"src": "data.bin"}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	assert.Contains(t, mf.String(), "ld -r -b binary")
}
