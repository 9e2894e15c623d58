package unify

import "github.com/dyverify/arachne/internal/term"

// Trail records every variable bound during unification so the caller can
// undo them in reverse order on backtrack. This is the explicit binding
// stack called for by the teacher's re-architecture notes (spec §9,
// "Mutable substitution fields ... requirement is scoped binding ... keep
// a separate binding stack"), decoupling term identity from substitution
// state.
type Trail struct {
	vars []*term.Term
}

// NewTrail returns an empty trail.
func NewTrail() *Trail { return &Trail{} }

// Bind binds v to val and records it on the trail.
func (tr *Trail) Bind(v, val *term.Term) {
	term.Bind(v, val)
	tr.vars = append(tr.vars, v)
}

// Mark returns a checkpoint that UndoTo can later rewind to.
func (tr *Trail) Mark() int { return len(tr.vars) }

// UndoTo unbinds every variable bound since mark, in reverse order.
func (tr *Trail) UndoTo(mark int) {
	for i := len(tr.vars) - 1; i >= mark; i-- {
		term.Unbind(tr.vars[i])
	}
	tr.vars = tr.vars[:mark]
}

// UndoAll unbinds everything on the trail.
func (tr *Trail) UndoAll() { tr.UndoTo(0) }
