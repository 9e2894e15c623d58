// Package binding implements the outstanding/satisfied "message required
// at event" obligation list (component H).
package binding

import "github.com/dyverify/arachne/internal/term"

// Binding is the obligation that Term must appear at event (RunTo, EvTo).
// While open, RunFrom/EvFrom are -1; once Done, they name the sending
// event that supplies it, or stay -1 when an intruder derivation or the
// initial knowledge supplies it (spec §3: "Binding").
type Binding struct {
	Term *term.Term

	RunTo int
	EvTo  int

	RunFrom int // -1 while open
	EvFrom  int // -1 while open

	Done    bool
	Blocked bool // excluded from goal selection without being satisfied (e.g. mid-refinement)

	Level int // encryption/key nesting level this binding was created at, consulted by the heuristic

	// FromInitialKnowledge marks a binding satisfied directly by m0 rather
	// than by any run's send event (spec §4.M refinement 3).
	FromInitialKnowledge bool

	// ClassChoice marks a binding satisfied by picking one concrete
	// instance out of several possible initial-knowledge terms for an
	// open variable goal (spec §4.M refinement 3). Such a binding is also
	// marked Done, like any other satisfied binding.
	ClassChoice bool

	// Synthetic marks a binding satisfied by intruder tupling/decryption
	// composition (refinement 3's split into sub-goals) rather than by any
	// concrete run or m0 directly.
	Synthetic bool
}

// New creates an open binding for term t required at (runTo, evTo).
func New(t *term.Term, runTo, evTo, level int) *Binding {
	return &Binding{Term: t, RunTo: runTo, EvTo: evTo, RunFrom: -1, EvFrom: -1, Level: level}
}

// Satisfy marks b done, supplied by (runFrom, evFrom).
func (b *Binding) Satisfy(runFrom, evFrom int) {
	b.RunFrom, b.EvFrom = runFrom, evFrom
	b.Done = true
}

// Open reverts b to an unsatisfied state, used on backtrack.
func (b *Binding) Open() {
	b.RunFrom, b.EvFrom = -1, -1
	b.Done = false
	b.FromInitialKnowledge = false
}

// Selectable reports whether b is a legal goal for the heuristic: neither
// satisfied nor blocked (spec §4.K: is_goal_selectable).
func (b *Binding) Selectable() bool {
	return !b.Done && !b.Blocked
}

// List is the ordered binding list for a semi-trace. Order is insertion
// order, preserved as a growable slice (spec §9 design notes: replace
// pointer-linked lists with arrays while preserving "oldest binding
// first").
type List struct {
	items []*Binding
}

func NewList() *List { return &List{} }

// Add appends a new binding, preserving insertion order.
func (l *List) Add(b *Binding) { l.items = append(l.items, b) }

// Remove deletes b (by pointer identity), used when a speculative
// sub-goal created during a refinement attempt must be retracted on
// backtrack.
func (l *List) Remove(b *Binding) {
	for i, it := range l.items {
		if it == b {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}

// Items returns the bindings in insertion order; callers must not mutate
// the returned slice's backing array length.
func (l *List) Items() []*Binding { return l.items }

// Selectable returns every selectable binding, oldest first.
func (l *List) Selectable() []*Binding {
	var out []*Binding
	for _, b := range l.items {
		if b.Selectable() {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the total number of bindings, satisfied or not.
func (l *List) Len() int { return len(l.items) }

// Clone makes a shallow copy of the list structure (new slice, same
// *Binding pointers) — used when the driver needs to snapshot which
// bindings existed before a refinement added more.
func (l *List) Clone() *List {
	cp := &List{items: make([]*Binding, len(l.items))}
	copy(cp.items, l.items)
	return cp
}
