package term

// Instantiation rewrites every leaf whose RunID equals From to a parallel
// leaf with RunID equal To, used when instantiating a role template into
// a concrete run (spec §4.B: term_local(t, from, to)). Leaves at any other
// run-id (globals, or leaves already bound to a different run) are shared
// unchanged, matching "share leaves, never share interior nodes with
// different substitution state".
type Instantiation struct {
	From int
	To   int

	// cache ensures the two parallel leaves for the same symbol are
	// identical *Term pointers within one instantiation, so that two
	// occurrences of the same role-local variable in a role's event list
	// become the same run-local variable after instantiation.
	cache map[*Term]*Term
}

// NewInstantiation prepares a from->to leaf rewrite.
func NewInstantiation(from, to int) *Instantiation {
	return &Instantiation{From: from, To: to, cache: make(map[*Term]*Term)}
}

// Local deep-copies t, rewriting every leaf at run-id i.From to a parallel
// leaf at run-id i.To. Composite nodes are always freshly allocated so
// that the copy's substitution state (on variable leaves reached through
// it) is independent of the template's.
func (i *Instantiation) Local(t *Term) *Term {
	switch t.Kind {
	case Constant, Variable:
		if t.RunID != i.From {
			return t
		}
		if existing, ok := i.cache[t]; ok {
			return existing
		}
		cp := &Term{Kind: t.Kind, Sym: t.Sym, RunID: i.To, Sorts: t.Sorts, RoleVar: t.RoleVar}
		i.cache[t] = cp
		return cp
	case Tuple:
		return NewTuple(i.Local(t.Left), i.Local(t.Right))
	case Encryption:
		return NewEncrypt(i.Local(t.Left), i.Local(t.Right), t.IsFunction)
	}
	return t
}
