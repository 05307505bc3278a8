package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

func TestJavaLibraryWriteMakeInvokesJavac(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":lib")
	n := NewJavaLibrary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{lists: map[string][]string{"srcs": {"A.java"}}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.Contains(t, out, "javac -d")
	assert.Contains(t, out, "pkg/A.java")
}

func TestJavaJarAddsManifestWhenMainClassSet(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":jar")
	n := NewJavaJar(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"main_class": "com.example.Main"}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.Contains(t, out, "Main-Class: com.example.Main")
	assert.Contains(t, out, "jar cfm")
}

func TestJavaJarOmitsManifestWhenNoMainClass(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":jar")
	n := NewJavaJar(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	assert.Contains(t, mf.String(), "jar cf ")
	assert.NotContains(t, mf.String(), "Main-Class")
}

func TestJavaBinaryRequiresMainClass(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":bin")
	n := NewJavaBinary(tgt, testInput())
	err := n.Parse(&fakeEntry{})
	assert.Error(t, err)
}

func TestJavaBinarySpawnsSymlinkDuringParse(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":bin")
	n := NewJavaBinary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"main_class": "com.example.Main"}}))
	require.Len(t, n.Subnodes(), 1)
	assert.Equal(t, "top_symlink", n.Subnodes()[0].Kind())
}

func TestJavaBinaryWriteMakeWritesLauncherScript(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":bin")
	n := NewJavaBinary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"main_class": "com.example.Main"}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.Contains(t, out, "exec java -cp")
	assert.Contains(t, out, "com.example.Main")
	assert.Contains(t, out, "chmod +x")
}

// TestJavaBinaryMainClassWithQuoteStaysOneShellWord guards against main_class
// breaking out of the launcher script's quoting: a naive splice into a
// single-quoted printf format string would let an embedded ' terminate the
// quoting early and hand whatever follows to the shell.
func TestJavaBinaryMainClassWithQuoteStaysOneShellWord(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":bin")
	n := NewJavaBinary(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"main_class": "Evil'; rm -rf /; echo 'x"}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.NotContains(t, out, "Evil'; rm -rf /")
	assert.Contains(t, out, `'"'"'`, "a literal ' inside a shell-quoted argument must be escaped, not left to terminate the quote")
}

// TestJavaJarMainClassWithQuoteIsEscaped exercises the same hazard for the
// manifest's "Main-Class:" line.
func TestJavaJarMainClassWithQuoteIsEscaped(t *testing.T) {
	target.ResetMakePathTokens()
	tgt, _ := target.Parse("pkg", ":jar")
	n := NewJavaJar(tgt, testInput())
	require.NoError(t, n.Parse(&fakeEntry{strs: map[string]string{"main_class": "Evil'; rm -rf /; echo 'x"}}))

	mf := makefile.New(false)
	n.WriteMake(mf)
	out := mf.String()
	assert.NotContains(t, out, "Evil'; rm -rf /")
}
