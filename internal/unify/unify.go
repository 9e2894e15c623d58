// Package unify implements the most-general-unifier with callback
// continuation and subterm-modulo-decryption search (component E).
package unify

import (
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/termlist"
)

// Kont is invoked once per most-general solution found. It returns
// whether the search should keep looking for further solutions (true) or
// stop immediately (false). Unify/SubtermUnify itself returns the
// conjunction of every Kont invocation made along the way, propagating an
// early "false" straight back to the top caller, per spec §4.E.
type Kont func() bool

// Unify attempts to unify t1 and t2 under mode, recording every binding on
// tr. It never raises an error; a failed match simply yields no Kont
// invocations and Unify returns true (spec §7: "Unification ... never
// raise; they return true/false to the continuation").
func Unify(t1, t2 *term.Term, tr *Trail, mode Mode, kont Kont) bool {
	a, b := term.Devar(t1), term.Devar(t2)

	if term.Equal(a, b) {
		return kont()
	}

	aVar, bVar := a.Kind == term.Variable, b.Kind == term.Variable

	switch {
	case aVar && bVar:
		toBind, target := preferSubstitutionOrder(a, b)
		if !goodsubst(mode, toBind, target) {
			return true
		}
		mark := tr.Mark()
		tr.Bind(toBind, target)
		res := kont()
		tr.UndoTo(mark)
		return res

	case aVar && !bVar:
		if term.Occurs(a, b) || !goodsubst(mode, a, b) {
			return true
		}
		mark := tr.Mark()
		tr.Bind(a, b)
		res := kont()
		tr.UndoTo(mark)
		return res

	case !aVar && bVar:
		if term.Occurs(b, a) || !goodsubst(mode, b, a) {
			return true
		}
		mark := tr.Mark()
		tr.Bind(b, a)
		res := kont()
		tr.UndoTo(mark)
		return res

	case a.Kind == term.Encryption && b.Kind == term.Encryption:
		if a.IsFunction != b.IsFunction {
			return true
		}
		return Unify(a.Right, b.Right, tr, mode, func() bool {
			return Unify(a.Left, b.Left, tr, mode, kont)
		})

	case a.Kind == term.Tuple && b.Kind == term.Tuple:
		return Unify(a.Left, b.Left, tr, mode, func() bool {
			return Unify(a.Right, b.Right, tr, mode, kont)
		})
	}

	// Kind mismatch between two non-variable terms: no unifier.
	return true
}

// SubtermUnify extends Unify with the Dolev-Yao decryption/tupling search
// used by the Arachne driver's "bind to existing send" refinement (spec
// §4.E): it looks for small inside big, accumulating the keys that would
// need to be known to reach it in keylist, outermost-first.
//
//  1. direct unification of big with small.
//  2. if big is a tuple, recurse into each component.
//  3. if big is an encryption, prepend big to keylist and recurse into its
//     plaintext.
func SubtermUnify(big, small *term.Term, tr *Trail, mode Mode, keylist *termlist.List, kont Kont) bool {
	big = term.Devar(big)

	if !Unify(big, small, tr, mode, kont) {
		return false
	}

	switch big.Kind {
	case term.Tuple:
		if !SubtermUnify(big.Left, small, tr, mode, keylist, kont) {
			return false
		}
		return SubtermUnify(big.Right, small, tr, mode, keylist, kont)
	case term.Encryption:
		keylist.Prepend(big)
		res := SubtermUnify(big.Left, small, tr, mode, keylist, kont)
		keylist.PopFront()
		return res
	}
	return true
}
