// Package parse implements the build-file parser (C6): it walks the build
// file tree starting from a seed set of targets, dispatches each entry to
// the node registry, hoists subnodes, and resolves declared dependency
// targets to node pointers (spec §4.6).
package parse

import (
	"github.com/LuminateWireless/repobuild/internal/node"
)

// Pool is the single owning map of every Node parsed during a generation
// (spec §9's "single pool owns all nodes" model, adopted per SPEC_FULL.md
// §D.2). dependencies/subnodes elsewhere hold non-owning *Node values into
// this map; nothing outside Pool ever deletes one.
type Pool struct {
	nodes  []node.Node
	byPath map[string]node.Node
	// inputs are the original top-level targets requested (spec §4.6
	// "input_nodes()"), in the order they were first seen.
	inputs []node.Node
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{byPath: map[string]node.Node{}}
}

// Get looks up an already-registered node by full path.
func (p *Pool) Get(fullPath string) (node.Node, bool) {
	n, ok := p.byPath[fullPath]
	return n, ok
}

// Add registers a newly constructed node, keyed by its target's full path.
func (p *Pool) Add(n node.Node) {
	p.nodes = append(p.nodes, n)
	p.byPath[n.Info().FullPath()] = n
}

// MarkInput records n as one of the original seed targets.
func (p *Pool) MarkInput(n node.Node) {
	p.inputs = append(p.inputs, n)
}

// Nodes returns every node in the pool, in registration order.
func (p *Pool) Nodes() []node.Node { return p.nodes }

// InputNodes returns the seed targets, in the order they were requested
// (spec §4.6 "input_nodes()").
func (p *Pool) InputNodes() []node.Node { return p.inputs }

// hoist walks n's pending subnodes, registers each one in the pool and
// recurses into its own pending subnodes, per spec §4.6 step 4: "hoisting
// moves ownership of child subnodes into the main pool... transitively".
func hoist(p *Pool, n node.Node) {
	for _, sub := range n.ExtractSubnodes() {
		p.Add(sub)
		hoist(p, sub)
	}
}
