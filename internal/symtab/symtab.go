// Package symtab interns symbolic names and tracks scope level and
// key-use level for each, component A of the verifier core.
package symtab

// Sort is one of the declared types a symbol may carry (Agent, Nonce,
// SessionKey, Ticket, a usertype, ...). A Sort is a plain string compared
// by value; it is not interned in a Table.
type Sort string

// Symbol is an interned name: every occurrence of the same source name at
// the same scope shares one *Symbol, so identity comparison is valid.
type Symbol struct {
	Name       string
	Scope      int // 0 = global, n = n nested role/protocol scopes deep
	id         int // insertion order, used for deterministic iteration
	keyUseLvl  int // number of times this symbol has been used as an encryption key
}

func (s *Symbol) String() string { return s.Name }

// KeyUseLevel returns how many times this symbol has been observed in key
// position of an encryption, consulted by the hide-level lemma and by the
// heuristic's key-level escalation sub-score.
func (s *Symbol) KeyUseLevel() int { return s.keyUseLvl }

// Table interns symbols per (name, scope) pair.
type Table struct {
	byScope []map[string]*Symbol // byScope[level][name] -> symbol
	all     []*Symbol
	next    int
}

// New returns an empty symbol table with the global scope (level 0)
// pre-allocated.
func New() *Table {
	return &Table{byScope: []map[string]*Symbol{{}}}
}

// PushScope opens a new nested scope (e.g. entering a role body) and
// returns its level.
func (t *Table) PushScope() int {
	t.byScope = append(t.byScope, map[string]*Symbol{})
	return len(t.byScope) - 1
}

// PopScope discards the innermost scope. Symbols interned there become
// unreachable by name but existing *Symbol pointers remain valid — callers
// holding a reference (e.g. a role-event template) keep working exactly as
// term leaves keep their symbol reference after a run is retracted.
func (t *Table) PopScope() {
	if len(t.byScope) > 1 {
		t.byScope = t.byScope[:len(t.byScope)-1]
	}
}

// CurrentScope returns the innermost open scope level.
func (t *Table) CurrentScope() int { return len(t.byScope) - 1 }

// Intern returns the symbol named name at the current scope, creating it
// if necessary. While a scope stays open, each name in it maps to exactly
// one *Symbol; a level reopened by PushScope after PopScope starts empty,
// so the same name there yields a new *Symbol.
func (t *Table) Intern(name string) *Symbol {
	level := t.CurrentScope()
	scope := t.byScope[level]
	if sym, ok := scope[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Scope: level, id: t.next}
	t.next++
	scope[name] = sym
	t.all = append(t.all, sym)
	return sym
}

// InternAt interns name at a specific scope level, for building role-local
// templates ahead of their enclosing scope being current.
func (t *Table) InternAt(name string, level int) *Symbol {
	for len(t.byScope) <= level {
		t.byScope = append(t.byScope, map[string]*Symbol{})
	}
	scope := t.byScope[level]
	if sym, ok := scope[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Scope: level, id: t.next}
	t.next++
	scope[name] = sym
	t.all = append(t.all, sym)
	return sym
}

// Lookup finds name starting at the current scope and searching outward,
// matching SPDL's lexical scoping (a role-local shadows a global).
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for level := t.CurrentScope(); level >= 0; level-- {
		if sym, ok := t.byScope[level][name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// MarkKeyUse bumps sym's key-use level; called whenever a term headed by
// sym appears in key position of an encryption.
func (t *Table) MarkKeyUse(sym *Symbol) {
	sym.keyUseLvl++
}

// All returns every interned symbol in insertion order, for deterministic
// output (e.g. enumerating usertypes in a proof report).
func (t *Table) All() []*Symbol {
	out := make([]*Symbol, len(t.all))
	copy(out, t.all)
	return out
}
