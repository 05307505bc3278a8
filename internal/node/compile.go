package node

import (
	"fmt"
	"path"
	"strings"

	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// compileSource is the shared "Compiler" emission pattern spec §4.5
// describes: one rule per source file producing an object (or syntax-check
// mark), sharing the same recipe-building shape across cc_library,
// cc_binary, cc_test and cc_embed_data. cmd receives the resolved source
// and object paths and returns the shell command to run.
func compileSource(mf *makefile.Makefile, silent bool, desc, src, obj string, extraDeps []string, cmd func(src, obj string) string) {
	deps := append([]string{src}, extraDeps...)
	r := mf.StartRule(obj, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(obj))))
	r.WriteUserEcho(desc, obj)
	r.WriteCommand(cmd(src, obj))
	mf.FinishRule(r)
}

// objectPathFor derives the object file path for a source, preserving its
// directory structure under objDir and swapping its extension.
func objectPathFor(objDir, srcDir, src, ext string) string {
	rel := strings.TrimPrefix(src, srcDir+"/")
	trimmed := strings.TrimSuffix(rel, path.Ext(rel))
	return path.Join(objDir, trimmed+ext)
}

// writeLinkRule emits the shared "Linker/packager" pattern: one rule
// depending on the union of transitive object files, producing a single
// final output.
func writeLinkRule(mf *makefile.Makefile, silent bool, desc, out string, objs []target.Resource, extraDeps []string, cmd func(objPaths []string, out string) string) {
	deps := make([]string, 0, len(objs)+len(extraDeps))
	paths := make([]string, 0, len(objs))
	for _, o := range objs {
		deps = append(deps, o.Path)
		paths = append(paths, o.Path)
	}
	deps = append(deps, extraDeps...)
	r := mf.StartRule(out, deps)
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(path.Dir(out))))
	r.WriteUserEcho(desc, out)
	r.WriteCommand(cmd(paths, out))
	mf.FinishRule(r)
}

func resourcePaths(rs []target.Resource) []string {
	ret := make([]string, len(rs))
	for i, r := range rs {
		ret[i] = r.Path
	}
	return ret
}
