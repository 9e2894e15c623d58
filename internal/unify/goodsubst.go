package unify

import (
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// Mode is the unifier's type-flaw strictness, spec §4.E / §6 `match`.
type Mode int

const (
	Strict        Mode = iota // 0: typed, sort lists must intersect
	BasicTypeFlaw             // 1: any basic-type substitution allowed
	AnyTypeFlaw               // 2: arbitrary type flaws
)

// The Function/Agent clash is the one hard constraint goodsubst keeps in
// every match mode, pinned down in SPEC_FULL.md §12 from
// original_source/src/mgu.c's checkTypeTerm.
const (
	sortFunction symtab.Sort = "Function"
	sortAgent    symtab.Sort = "Agent"
)

func hasSort(sorts []symtab.Sort, s symtab.Sort) bool {
	for _, x := range sorts {
		if x == s {
			return true
		}
	}
	return false
}

func sortsIntersect(a, b []symtab.Sort) bool {
	for _, x := range a {
		if hasSort(b, x) {
			return true
		}
	}
	return false
}

// hardClash is the Function/Agent constraint that applies regardless of
// match mode.
func hardClash(v, u *term.Term) bool {
	return (hasSort(v.Sorts, sortFunction) && hasSort(u.Sorts, sortAgent)) ||
		(hasSort(v.Sorts, sortAgent) && hasSort(u.Sorts, sortFunction))
}

// goodsubst checks whether binding variable v to term u is type-sound
// under mode. See SPEC_FULL.md §12 for the exact per-mode semantics
// pinned down from Scyther's goodsubst/checkTypeTerm.
func goodsubst(mode Mode, v, u *term.Term) bool {
	u = term.Devar(u)

	if hardClash(v, u) {
		return false
	}
	if mode == AnyTypeFlaw {
		return true
	}
	if !term.IsLeaf(u) {
		// Composite terms carry no explicit sort in this model; only the
		// hard clash (already checked) applies to them.
		return true
	}
	if v.Untyped || u.Untyped || len(v.Sorts) == 0 || len(u.Sorts) == 0 {
		// Incomplete type inference: a side with no sort information is
		// accepted in every mode; only two typed leaves are compared.
		return true
	}
	if mode == BasicTypeFlaw {
		return true
	}
	// Strict (mode 0): sort lists must intersect.
	return sortsIntersect(v.Sorts, u.Sorts)
}

// preferSubstitutionOrder decides, for two unbound variables a and b,
// which one is bound to the other. An Agent-typed variable is preferred
// as the substitution *target* (spec §4.E, grounded in
// original_source/src/mgu.c's preferSubstitutionOrder). Returns
// (variableToBind, boundToValue).
func preferSubstitutionOrder(a, b *term.Term) (*term.Term, *term.Term) {
	if hasSort(a.Sorts, sortAgent) && !hasSort(b.Sorts, sortAgent) {
		return b, a
	}
	return a, b
}
