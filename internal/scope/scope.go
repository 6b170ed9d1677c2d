// Package scope implements Garden's Environment (spec §4.3): an immutable
// cons-list of frames mapping names to the node-id of their defining
// expression, not to a value. That indirection is the central design
// choice enabling incremental recomputation — see internal/eval.
package scope

import "github.com/agentic-research/garden/internal/graph"

// Environment is one frame in the chain. The zero value is not usable;
// construct with NewRoot.
type Environment struct {
	bindings map[string]graph.ID
	parent   *Environment
}

// NewRoot returns a fresh, empty root environment with no parent.
func NewRoot() *Environment {
	return &Environment{bindings: make(map[string]graph.ID)}
}

// Resolve walks frames from innermost (e) outward, returning the node-id
// of the name's nearest binding. The second return is false on a miss.
func (e *Environment) Resolve(name string) (graph.ID, bool) {
	for f := e; f != nil; f = f.parent {
		if id, ok := f.bindings[name]; ok {
			return id, true
		}
	}
	return graph.ID{}, false
}

// Bind installs name -> id in e's own frame, mutating it in place. Apart
// from ExtendWith filling a fresh child frame, the driver's root loop is
// its only caller (spec §4.5); eval never binds into an existing frame.
func (e *Environment) Bind(name string, id graph.ID) {
	e.bindings[name] = id
}

// Extend returns a fresh child frame whose parent is e. Binding a name in
// the child never affects e — the standard immutable-environment shadowing
// behaviour the let-expression relies on (spec §4.4).
func (e *Environment) Extend() *Environment {
	return &Environment{bindings: make(map[string]graph.ID), parent: e}
}

// ExtendWith is a convenience for the common single-binding case.
func (e *Environment) ExtendWith(name string, id graph.ID) *Environment {
	child := e.Extend()
	child.Bind(name, id)
	return child
}
