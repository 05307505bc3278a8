// Package generate implements the generator (C7): parse, compute a
// topological process order, write each node's Makefile fragment, then
// append the global phony rules (spec §4.7).
package generate

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/LuminateWireless/repobuild/internal/cli/logging"
	"github.com/LuminateWireless/repobuild/internal/core"
	"github.com/LuminateWireless/repobuild/internal/makefile"
	"github.com/LuminateWireless/repobuild/internal/node"
	"github.com/LuminateWireless/repobuild/internal/parse"
	"github.com/LuminateWireless/repobuild/internal/target"
)

var log = logging.Log

// Generate runs the full parse -> order -> emit pipeline and returns the
// complete Makefile text (spec §4.7). seeds are the target tokens to build
// from, or parse.WildcardToken for everything under the tree.
func Generate(in *core.Input, seeds []string) (string, error) {
	start := time.Now()
	target.ResetMakePathTokens()

	mf := makefile.New(in.SilentMake)
	registry := node.NewRegistry()

	mf.Append(header())
	registry.WriteMakeHead(in, mf)

	pool, err := parse.Parse(in, registry, seeds)
	if err != nil {
		return "", err
	}

	order, err := processOrder(pool)
	if err != nil {
		return "", err
	}

	for _, n := range order {
		n.WriteMake(mf)
	}

	writeClean(in, order, mf)
	writeInstall(in, order, mf)
	writeAll(pool.InputNodes(), mf)
	writeTests(pool.InputNodes(), mf)
	writeLicenses(pool.InputNodes(), mf)
	mf.Append("\n.PHONY: clean all tests install licenses\n")
	mf.Append(".DEFAULT_GOAL := all\n")

	log.Info("Generated %s of Makefile for %d targets in %s", humanize.Bytes(uint64(len(mf.String()))), len(order), time.Since(start).Round(time.Millisecond))
	return mf.String(), nil
}

func header() string {
	return fmt.Sprintf("# Generated by repobuild. Do not edit by hand.\n# generation-id: %s\n\n", uuid.New().String())
}

// processOrder computes the topological order of pool's input nodes'
// transitive dependency graph (spec §4.7 step 5): DFS with a `parents` set
// for cycle detection and a `seen` set to avoid revisiting, children walked
// in declaration order for a stable result. Every remaining pool node (a
// hoisted subnode such as TopSymlink, which nothing depends on) is then
// visited in pool order, so each one is emitted exactly once.
func processOrder(pool *parse.Pool) ([]node.Node, error) {
	var order []node.Node
	parents := map[node.Node]bool{}
	seen := map[node.Node]bool{}

	var visit func(n node.Node) error
	visit = func(n node.Node) error {
		if parents[n] {
			return core.NewError(core.RecursiveDependency, n.Info().FullPath(), "cycle detected")
		}
		if seen[n] {
			return nil
		}
		parents[n] = true
		for _, dep := range n.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(parents, n)
		seen[n] = true
		order = append(order, n)
		return nil
	}

	for _, n := range pool.InputNodes() {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	for _, n := range pool.Nodes() {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func writeClean(in *core.Input, order []node.Node, mf *makefile.Makefile) {
	r := mf.StartRule("clean", nil)
	for _, n := range order {
		n.LocalWriteMakeClean(r)
	}
	for _, d := range []string{in.ObjectDir, in.BinaryDir, in.GenfileDir, in.SourceDir, in.PkgfileDir} {
		r.WriteCommandBestEffort(fmt.Sprintf("rm -rf %s", makefile.EscapeMakeRef(d)))
	}
	mf.FinishRule(r)
}

func writeInstall(in *core.Input, order []node.Node, mf *makefile.Makefile) {
	mf.Append("\nprefix ?= /usr/local\n")
	mf.Append("bindir ?= $(prefix)/bin\n")
	mf.Append("INSTALL ?= install\n")
	r := mf.StartRule("install", nil)
	r.WriteCommand("mkdir -p $(DESTDIR)$(bindir)")
	for _, n := range order {
		n.LocalWriteMakeInstall(mf, r)
	}
	mf.FinishRule(r)
}

func writeAll(inputs []node.Node, mf *makefile.Makefile) {
	deps := make([]string, 0, len(inputs))
	for _, n := range inputs {
		if !n.IncludeInAll() {
			continue
		}
		for _, out := range node.Files(n, node.FinalOutputs, node.NoLang) {
			deps = append(deps, out.Path)
		}
		deps = append(deps, n.Info().MakePath())
	}
	mf.WriteRule("all", deps)
}

func writeTests(inputs []node.Node, mf *makefile.Makefile) {
	deps := make([]string, 0, len(inputs))
	for _, n := range inputs {
		if !n.IncludeInTests() {
			continue
		}
		deps = append(deps, n.Info().MakePath())
	}
	mf.WriteRule("tests", deps)
}

func writeLicenses(inputs []node.Node, mf *makefile.Makefile) {
	r := mf.StartRule("licenses", nil)
	for _, n := range inputs {
		licenses := target.NewStringSet()
		n.Licenses(licenses)
		for _, l := range licenses.Slice() {
			r.WriteCommand(fmt.Sprintf("printf '%%s => %%s\\n' %s %s",
				makefile.Escape(n.Info().FullPath()), makefile.Escape(l)))
		}
	}
	mf.FinishRule(r)
}
