package node

import (
	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// Filegroup is the archetypal "Collector" variant (spec §4.5): it declares no
// compile step of its own, just re-exposes its declared sources as a single
// named group other nodes can depend on.
type Filegroup struct {
	*Base
	srcs []target.Resource
}

// NewFilegroup constructs an empty Filegroup for t.
func NewFilegroup(t target.Info, in *core.Input) *Filegroup {
	return &Filegroup{Base: NewBase(t, in)}
}

func (n *Filegroup) Kind() string { return "filegroup" }

func (n *Filegroup) Parse(entry BuildEntry) error {
	n.parseStrictFileMode(entry)
	for _, s := range entry.StringList("srcs") {
		n.srcs = append(n.srcs, target.FromLocalPath(n.Target.Dir, s))
	}
	if err := n.checkSources(n.srcs); err != nil {
		return err
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

func (n *Filegroup) LocalDependencyFiles(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
}

func (n *Filegroup) LocalFinalOutputs(lang Language, out *target.FileSet) {
	out.AddAll(n.srcs)
}

func (n *Filegroup) WriteMake(mf *makefile.Makefile) {
	deps := make([]string, len(n.srcs))
	for i, s := range n.srcs {
		deps[i] = s.Path
	}
	n.WriteUserTarget(deps, mf)
}
