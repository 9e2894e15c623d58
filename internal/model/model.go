// Package model holds the static role/protocol definitions and the
// dynamic run instances built from them (component F).
package model

import (
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// EventKind tags a role-event's shape (spec §6: send/recv/claim; match is
// desugared by the input collaborator into a send/recv pair before it
// reaches the core).
type EventKind uint8

const (
	Send EventKind = iota
	Recv
	ClaimEvent
)

// ClaimKind enumerates the six (plus bookkeeping) claim kinds the parser
// collaborator may emit, spec §6.
type ClaimKind uint8

const (
	Secret ClaimKind = iota
	SKR
	Alive
	WeakAgree
	NiAgree
	NiSynch
	Reachable
	Commit
	Running
	SID
	NotEqual
	Empty
)

// Event is one role-event template (before instantiation into a run) or,
// once copied via term.Instantiation, one concrete run event.
type Event struct {
	Kind  EventKind
	Label string
	From  *term.Term // role-name term (global/role-scope until instantiated)
	To    *term.Term
	Msg   *term.Term

	Claim      ClaimKind
	ClaimParam *term.Term
}

// Role is an ordered sequence of role-event templates parameterised by
// role-local variables and the role's own agent name.
type Role struct {
	Name     string
	NameSym  *symtab.Symbol
	Events   []Event
	Locals   []*term.Term // role-local variable templates (RunID == term.RoleScope)
}

// Protocol is a named collection of roles that share message formats.
type Protocol struct {
	Name      string
	Roles     []*Role
	Symmetric bool // role-symmetric protocol (spec §4.J: mlist-based partnering applies)

	// RoleVars holds, per role name, the role-scope agent-variable template
	// that appears as that role's own name throughout its event templates.
	// Instantiating a run binds each of these into that run's Rho (spec
	// §4.B: "a run's ρ maps every role name to a concrete agent term").
	RoleVars map[string]*term.Term
}

func (k ClaimKind) String() string {
	switch k {
	case Secret:
		return "Secret"
	case SKR:
		return "SKR"
	case Alive:
		return "Alive"
	case WeakAgree:
		return "Weakagree"
	case NiAgree:
		return "Niagree"
	case NiSynch:
		return "Nisynch"
	case Reachable:
		return "Reachable"
	case Commit:
		return "Commit"
	case Running:
		return "Running"
	case SID:
		return "SID"
	case NotEqual:
		return "NotEqual"
	case Empty:
		return "Empty"
	}
	return "Unknown"
}

// RoleByName looks up a role by name within the protocol.
func (p *Protocol) RoleByName(name string) (*Role, bool) {
	for _, r := range p.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Run is one instance of a role: a concrete (or still-variable) agent
// assignment, a progress pointer, and the run's own arena of intermediate
// terms (spec §3: "Runs and bindings").
type Run struct {
	ID         int // index into the verifier's runs array; the dependency graph's run identifier
	ExternalID string // stable external id (uuid), for report payloads only — never used for graph/bindings identity
	GraphBase  int    // this run's base node index in the dependency graph (depend.Index.AddRun)

	Protocol *Protocol
	Role     *Role

	// Events holds this run's role events after term.Instantiation: every
	// leaf template at term.RoleScope has been rewritten to this run's ID.
	Events []Event

	Step int // 0-indexed: events[0:Step] are already bound/concrete

	Knowledge *know.Set // this run's locally-learned intruder knowledge, if modelled per-run

	Rho   map[string]*term.Term    // role name -> concrete agent term
	Sigma map[*symtab.Symbol]*term.Term // role-local variable -> current binding

	Artefacts []*term.Term // intermediate terms created while extending this run; freed on retraction

	IsIntruder bool // synthetic run representing an intruder derivation/compromise event, never a "regular" send

	Partner bool // set by internal/compromise.ComputePartners for the current claim evaluation
}

// RoleLength returns the number of events in the run.
func (r *Run) RoleLength() int { return len(r.Events) }

// Remaining returns the events not yet bound.
func (r *Run) Remaining() []Event { return r.Events[r.Step:] }

// AddArtefact tracks an intermediate term so Retract can account for it
// deterministically (spec §3: "an artefact list attached to each run so
// that retraction deletes them deterministically").
func (r *Run) AddArtefact(t *term.Term) {
	r.Artefacts = append(r.Artefacts, t)
}
