package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStringIncludesTargetWhenSet(t *testing.T) {
	err := NewError(UnknownTarget, "//src/core:lib", "not found")
	assert.Equal(t, "UnknownTarget: //src/core:lib: not found", err.Error())
}

func TestErrorStringOmitsTargetWhenEmpty(t *testing.T) {
	err := NewError(ParseIO, "", "boom")
	assert.Equal(t, "ParseIO: boom", err.Error())
}

func TestWrapUnwrapsUnderlyingError(t *testing.T) {
	underlying := errors.New("disk fell over")
	err := Wrap(ParseIO, "//src:x", underlying)
	assert.True(t, errors.Is(err, underlying))
}

func TestKindStringCoversAllConstants(t *testing.T) {
	kinds := []Kind{MalformedTarget, UnknownTarget, UnknownNodeType, MissingRequiredField, RecursiveDependency, FileNotFound, ParseIO}
	for _, k := range kinds {
		assert.NotEqual(t, "Unknown", k.String())
	}
}

func TestDefaultConfigurationUsesLiteralDirs(t *testing.T) {
	c := DefaultConfiguration()
	assert.Equal(t, "obj", c.Dirs.ObjectDir)
	assert.Equal(t, "src", c.Dirs.SourceDir)
}

func TestReadConfigFilesToleratesMissingFiles(t *testing.T) {
	c, err := ReadConfigFiles([]string{"/nonexistent/.repobuild"})
	require.NoError(t, err)
	assert.Equal(t, "bin", c.Dirs.BinaryDir)
}

func TestMakeRefFormatsVariableReference(t *testing.T) {
	assert.Equal(t, "$(OBJ_DIR)", MakeRef(ObjDirVar))
}

func TestReadConfigFilesLaterOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "one")
	f2 := filepath.Join(dir, "two")
	require.NoError(t, os.WriteFile(f1, []byte("[dirs]\nobjectdir = /first\n"), 0644))
	require.NoError(t, os.WriteFile(f2, []byte("[dirs]\nobjectdir = /second\n"), 0644))

	c, err := ReadConfigFiles([]string{f1, f2})
	require.NoError(t, err)
	assert.Equal(t, "/second", c.Dirs.ObjectDir)
}

func TestInputFlagsReturnsEmptyForUnknownName(t *testing.T) {
	in := NewInput(DefaultConfiguration(), "/repo", ".", false, false)
	assert.Empty(t, in.Flags("nope"))
}

func TestInputFlagsReturnsConfiguredValues(t *testing.T) {
	config := DefaultConfiguration()
	config.Flags = map[string][]string{"cflags": {"-Wall", "-O2"}}
	in := NewInput(config, "/repo", ".", false, false)
	assert.Equal(t, []string{"-Wall", "-O2"}, in.Flags("cflags"))
}

func TestInputCarriesSilentFlagsIndependently(t *testing.T) {
	in := NewInput(DefaultConfiguration(), "/repo", ".", true, false)
	assert.True(t, in.SilentMake)
	assert.False(t, in.SilentGenSh)
}
