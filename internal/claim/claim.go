// Package claim holds the claim/label tables (component I) and the
// post-trace claim checker (component N).
package claim

import (
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
)

// Claim ties a label to its parameters, role, and the precedence-label
// set that must occur before it in any honest session (spec §3: "Claims").
type Claim struct {
	Label    string
	Kind     model.ClaimKind
	Param    *term.Term
	Role     *model.Role
	Protocol *model.Protocol

	EventIndex int // index of the claim event within Role.Events

	Precedence      []string // labels that must precede this claim
	PrecedenceRoles []string // roles carrying those labels

	StatesVisited int
	Failures      int
}

// Table is the ordered set of claims declared across all protocols,
// keyed by label (spec non-goal: the parser enforces global label
// uniqueness; see SPEC_FULL.md §13 decision 4 for this module's stricter
// behaviour on collision).
type Table struct {
	order []string
	byLbl map[string]*Claim
}

func NewTable() *Table {
	return &Table{byLbl: make(map[string]*Claim)}
}

// Add registers c under its label. Returns false if the label already
// exists (a duplicate label is a BadSpec error at the caller, per
// SPEC_FULL.md §13 decision 4).
func (t *Table) Add(c *Claim) bool {
	if _, exists := t.byLbl[c.Label]; exists {
		return false
	}
	t.byLbl[c.Label] = c
	t.order = append(t.order, c.Label)
	return true
}

func (t *Table) Get(label string) (*Claim, bool) {
	c, ok := t.byLbl[label]
	return c, ok
}

// All returns every claim in declaration order.
func (t *Table) All() []*Claim {
	out := make([]*Claim, 0, len(t.order))
	for _, l := range t.order {
		out = append(out, t.byLbl[l])
	}
	return out
}
