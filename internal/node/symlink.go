package node

import (
	"fmt"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// TopSymlink is the subnode binary-producing variants (py_binary, cc_binary,
// etc.) spawn during Parse to expose a stable repo-root-relative path for
// their final output (spec §4.5). Its sole job is a symlink rule.
type TopSymlink struct {
	*Base
	LinkPath string          // stable path, relative to repo root
	Real     target.Resource // the thing it points at
}

// NewTopSymlink constructs a TopSymlink subnode. parent is used to derive a
// parallel target identity in the same package via GetParallelTarget, per
// spec §4.1.
func NewTopSymlink(parent target.Info, in *core.Input, linkPath string, real target.Resource) *TopSymlink {
	t := parent.GetParallelTarget(parent.LocalName + "_symlink")
	return &TopSymlink{Base: NewBase(t, in), LinkPath: linkPath, Real: real}
}

func (n *TopSymlink) Kind() string { return "top_symlink" }

func (n *TopSymlink) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.Add(target.GeneratedResource(n.LinkPath))
}

func (n *TopSymlink) WriteMake(mf *makefile.Makefile) {
	r := mf.StartRule(n.LinkPath, []string{n.Real.Path})
	r.WriteCommand(fmt.Sprintf("mkdir -p %s", makefile.EscapeMakeRef(dirOf(n.LinkPath))))
	r.WriteCommand(fmt.Sprintf("ln -sf %s %s", makefile.EscapeMakeRef(n.Real.Path), makefile.EscapeMakeRef(n.LinkPath)))
	mf.FinishRule(r)
	n.WriteUserTarget([]string{n.LinkPath}, mf)
}

func (n *TopSymlink) LocalWriteMakeClean(r *makefile.Rule) {
	r.WriteCommandBestEffort(fmt.Sprintf("rm -f %s", makefile.EscapeMakeRef(n.LinkPath)))
}

func dirOf(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "."
}
