package node

import (
	"fmt"

	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/target"
)

// Constructor builds an empty Node of one kind for a freshly-parsed target,
// ready for Parse to populate (spec §4.6 step 3: "Look up its type field in
// the builder registry; construct a Node").
type Constructor func(t target.Info, in *core.Input) Node

// Registry maps build-file kind strings to constructors (C5). Kinds register
// only a constructor; no kind contributes a head or tail Makefile fragment
// of its own.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry returns a Registry pre-populated with every variant this
// package implements.
func NewRegistry() *Registry {
	r := &Registry{constructors: map[string]Constructor{}}
	r.Register("cc_library", func(t target.Info, in *core.Input) Node { return NewCCLibrary(t, in) })
	r.Register("cc_binary", func(t target.Info, in *core.Input) Node { return NewCCBinary(t, in) })
	r.Register("cc_test", func(t target.Info, in *core.Input) Node { return NewCCTest(t, in) })
	r.Register("cc_embed_data", func(t target.Info, in *core.Input) Node { return NewCCEmbedData(t, in) })
	r.Register("proto_library", func(t target.Info, in *core.Input) Node { return NewProtoLibrary(t, in) })
	r.Register("java_library", func(t target.Info, in *core.Input) Node { return NewJavaLibrary(t, in) })
	r.Register("java_jar", func(t target.Info, in *core.Input) Node { return NewJavaJar(t, in) })
	r.Register("java_binary", func(t target.Info, in *core.Input) Node { return NewJavaBinary(t, in) })
	r.Register("go_library", func(t target.Info, in *core.Input) Node { return NewGoLibrary(t, in) })
	r.Register("go_binary", func(t target.Info, in *core.Input) Node { return NewGoBinary(t, in) })
	r.Register("py_library", func(t target.Info, in *core.Input) Node { return NewPyLibrary(t, in) })
	r.Register("py_egg", func(t target.Info, in *core.Input) Node { return NewPyEgg(t, in) })
	r.Register("py_binary", func(t target.Info, in *core.Input) Node { return NewPyBinary(t, in) })
	r.Register("gen_sh", func(t target.Info, in *core.Input) Node { return NewGenSh(t, in) })
	r.Register("confignode", func(t target.Info, in *core.Input) Node { return NewConfigNode(t, in) })
	r.Register("filegroup", func(t target.Info, in *core.Input) Node { return NewFilegroup(t, in) })
	return r
}

// Register adds or overrides a kind's constructor.
func (r *Registry) Register(kind string, c Constructor) {
	r.constructors[kind] = c
}

// New constructs a fresh Node for kind, or an UnknownNodeType error if kind
// isn't registered (spec §7).
func (r *Registry) New(kind string, t target.Info, in *core.Input) (Node, error) {
	c, ok := r.constructors[kind]
	if !ok {
		return nil, core.NewError(core.UnknownNodeType, t.FullPath(), fmt.Sprintf("unknown node type %q", kind))
	}
	return c(t, in), nil
}

// WriteMakeHead writes the one-time preamble before any node-specific rule
// is written (spec §4.7 step 2). The preamble is the same regardless of which
// kinds were parsed: the managed-directory variable block. Every path the
// node package builds references $(OBJ_DIR)/$(SRC_DIR)/$(GEN_DIR)/
// $(PKG_DIR)/$(BIN_DIR) rather than a literal directory, so those names must
// be defined here exactly once, plus $(ROOT_DIR) (spec §6), which gen_sh
// recipes anchor their `cd` against so repo-relative references keep
// resolving after they leave their own generated-file directory.
func (r *Registry) WriteMakeHead(in *core.Input, mf *makefile.Makefile) {
	mf.Append("ROOT_DIR := $(shell pwd)\n")
	mf.Append(fmt.Sprintf("%s := %s\n", core.ObjDirVar, in.ObjectDir))
	mf.Append(fmt.Sprintf("%s := %s\n", core.SrcDirVar, in.SourceDir))
	mf.Append(fmt.Sprintf("%s := %s\n", core.GenDirVar, in.GenfileDir))
	mf.Append(fmt.Sprintf("%s := %s\n", core.PkgDirVar, in.PkgfileDir))
	mf.Append(fmt.Sprintf("%s := %s\n", core.BinDirVar, in.BinaryDir))
	mf.Append("\n")
}
