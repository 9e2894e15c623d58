// Package term implements the immutable symbolic term tree, mutable
// substitution with undo discipline, and the structural operations the
// rest of the verifier core is built on (component B).
package term

import (
	"fmt"

	"github.com/dyverify/arachne/internal/symtab"
)

// Kind identifies a term node's shape.
type Kind uint8

const (
	Constant Kind = iota
	Variable
	Tuple
	Encryption
)

// Scope sentinels for Term.RunID. Any value >= 0 is a concrete run index.
const (
	RoleScope = -1 // unbound role-event template, not yet instantiated into a run
	Global    = -2 // process-wide constant (declared with `const`)
)

// Term is an immutable tree node, except for Variable leaves' Subst field
// which is the one mutable slot in the whole representation (spec §3:
// "for variables only — a mutable substitution pointer").
type Term struct {
	Kind Kind

	// Leaf fields (Constant, Variable).
	Sym     *symtab.Symbol
	RunID   int
	Sorts   []symtab.Sort
	Subst   *Term // only meaningful when Kind == Variable
	RoleVar bool  // declared as a role-local variable (vs. a free search variable)
	Untyped bool  // flagged when about to be unified with no type info yet (§4.E)

	// Tuple fields: Left, Right. Normalised right-associative: Left is
	// never itself a Tuple.
	// Encryption fields: Left = plaintext, Right = key.
	Left  *Term
	Right *Term

	// IsFunction distinguishes a keyed-function application ({m}k where k
	// is a hashfunction symbol, never decryptable) from true symmetric/
	// asymmetric encryption. Only meaningful when Kind == Encryption.
	IsFunction bool
}

// NewConstant builds a constant leaf.
func NewConstant(sym *symtab.Symbol, runID int, sorts ...symtab.Sort) *Term {
	return &Term{Kind: Constant, Sym: sym, RunID: runID, Sorts: sorts}
}

// NewVariable builds an unbound variable leaf.
func NewVariable(sym *symtab.Symbol, runID int, roleVar bool, sorts ...symtab.Sort) *Term {
	return &Term{Kind: Variable, Sym: sym, RunID: runID, Sorts: sorts, RoleVar: roleVar}
}

// NewTuple builds a tuple node, normalising so the left operand is never
// itself a tuple ("no nested tuple as left operand", spec §3 invariants).
func NewTuple(left, right *Term) *Term {
	if left.Kind == Tuple {
		// (a,b),c  ==  a,(b,c)
		return NewTuple(left.Left, NewTuple(left.Right, right))
	}
	return &Term{Kind: Tuple, Left: left, Right: right}
}

// NewEncrypt builds an encryption (or keyed-function application) node.
func NewEncrypt(plain, key *Term, isFunction bool) *Term {
	return &Term{Kind: Encryption, Left: plain, Right: key, IsFunction: isFunction}
}

// Bind sets v's substitution pointer. The caller owns undo discipline: it
// must record v and call Unbind(v) on backtrack. Only valid on an unbound
// variable.
func Bind(v, val *Term) {
	if v.Kind != Variable {
		panic("term: Bind called on non-variable")
	}
	v.Subst = val
}

// Unbind clears v's substitution pointer.
func Unbind(v *Term) {
	v.Subst = nil
}

// Devar follows the substitution chain to a non-variable term or an
// unbound variable. Devar(Devar(t)) == Devar(t) (idempotent, spec §4.B).
func Devar(t *Term) *Term {
	for t.Kind == Variable && t.Subst != nil {
		t = t.Subst
	}
	return t
}

// leafEqual compares two leaves by (symbol, run-id), the representation's
// notion of leaf identity (spec §3: "Leaf equality is by (symbol, run-id)").
func leafEqual(a, b *Term) bool {
	return a.Sym == b.Sym && a.RunID == b.RunID
}

// Equal performs structural equality after Devar on both sides, descending
// modulo current substitutions.
func Equal(a, b *Term) bool {
	a, b = Devar(a), Devar(b)
	if a == b {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Constant, Variable:
		return leafEqual(a, b)
	case Tuple:
		return Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case Encryption:
		return a.IsFunction == b.IsFunction && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	}
	return false
}

// Occurs reports whether sub appears anywhere within super, structurally,
// after Devar. Used by the unifier's occurs-check (spec §3 invariant:
// "No variable is ever its own transitive substitute").
func Occurs(sub, super *Term) bool {
	super = Devar(super)
	if sub.Kind == Variable && super.Kind == Variable && leafEqual(sub, super) {
		return true
	}
	switch super.Kind {
	case Constant, Variable:
		return super.Kind == sub.Kind && leafEqual(sub, super)
	case Tuple, Encryption:
		return Occurs(sub, super.Left) || Occurs(sub, super.Right)
	}
	return false
}

// EncryptionLevel returns the maximum nesting depth of encryptions in t
// (a plain leaf has level 0).
func EncryptionLevel(t *Term) int {
	t = Devar(t)
	switch t.Kind {
	case Constant, Variable:
		return 0
	case Tuple:
		l, r := EncryptionLevel(t.Left), EncryptionLevel(t.Right)
		if l > r {
			return l
		}
		return r
	case Encryption:
		depth := EncryptionLevel(t.Left)
		if keyLvl := EncryptionLevel(t.Right); keyLvl > depth {
			depth = keyLvl
		}
		return depth + 1
	}
	return 0
}

// IsLeaf reports whether t (after Devar) is a Constant or Variable.
func IsLeaf(t *Term) bool {
	k := Devar(t).Kind
	return k == Constant || k == Variable
}

// String renders t for diagnostics and report backends (spec §4.O: the
// semi-trace handed to emitter collaborators). Leaves print as
// name#run-id so distinct runs of the same role never look identical;
// process-wide constants (Global) and still-template leaves (RoleScope)
// print bare.
func (t *Term) String() string {
	t = Devar(t)
	switch t.Kind {
	case Constant, Variable:
		switch t.RunID {
		case RoleScope, Global:
			return t.Sym.String()
		default:
			return fmt.Sprintf("%s#%d", t.Sym, t.RunID)
		}
	case Tuple:
		return fmt.Sprintf("(%s, %s)", t.Left, t.Right)
	case Encryption:
		if t.IsFunction {
			return fmt.Sprintf("%s(%s)", t.Right, t.Left)
		}
		return fmt.Sprintf("{%s}%s", t.Left, t.Right)
	}
	return "?"
}
