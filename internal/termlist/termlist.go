// Package termlist implements ordered multisets and finite maps over
// terms (component C), as growable slices rather than the teacher
// source's pointer-linked lists, while preserving the ordering semantics
// the rest of the core relies on (e.g. "oldest binding first").
package termlist

import "github.com/dyverify/arachne/internal/term"

// List is an ordered multiset of terms.
type List struct {
	items []*term.Term
}

// New returns an empty list, optionally seeded with items in order.
func New(items ...*term.Term) *List {
	l := &List{}
	l.items = append(l.items, items...)
	return l
}

// Append adds t to the end (oldest-first ordering is preserved by always
// appending, never prepending).
func (l *List) Append(t *term.Term) {
	l.items = append(l.items, t)
}

// Prepend adds t to the front; used by subtermUnify to accumulate a
// keylist outermost-first (spec §4.E: "keys needed for decryption
// accumulate in keylist outermost-first").
func (l *List) Prepend(t *term.Term) {
	l.items = append([]*term.Term{t}, l.items...)
}

// PopFront removes and discards the first item, the inverse of Prepend;
// used by subterm unification to retract a speculatively pushed key.
func (l *List) PopFront() {
	if len(l.items) > 0 {
		l.items = l.items[1:]
	}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the i-th item.
func (l *List) At(i int) *term.Term { return l.items[i] }

// Items returns the underlying slice; callers must not mutate it.
func (l *List) Items() []*term.Term { return l.items }

// Contains reports whether t is structurally equal (modulo current
// substitutions) to some item in the list.
func (l *List) Contains(t *term.Term) bool {
	for _, it := range l.items {
		if term.Equal(it, t) {
			return true
		}
	}
	return false
}

// Remove deletes the first structurally-equal occurrence of t, preserving
// the order of the remaining items.
func (l *List) Remove(t *term.Term) bool {
	for i, it := range l.items {
		if term.Equal(it, t) {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clone makes a shallow copy (new backing slice, same *term.Term values).
func (l *List) Clone() *List {
	cp := &List{items: make([]*term.Term, len(l.items))}
	copy(cp.items, l.items)
	return cp
}

// Map is an ordered finite map keyed by structural term equality. Kept as
// an assoc-slice, not a Go map, because term.Equal depends on the current
// substitution state and Go map keys cannot be re-hashed on devar.
type Map struct {
	keys []*term.Term
	vals []any
}

func NewMap() *Map { return &Map{} }

// Set inserts or updates the value for key.
func (m *Map) Set(key *term.Term, val any) {
	for i, k := range m.keys {
		if term.Equal(k, key) {
			m.vals[i] = val
			return
		}
	}
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, val)
}

// Get looks up key.
func (m *Map) Get(key *term.Term) (any, bool) {
	for i, k := range m.keys {
		if term.Equal(k, key) {
			return m.vals[i], true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []*term.Term { return m.keys }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }
