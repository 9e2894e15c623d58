// Package spdlast is the shape the external parser collaborator is
// expected to produce (spec §6 "Input"): a builder API that assembles
// internal/model.Protocol/Role/Event values, plus a small recursive
// descent reference parser for a SPDL-like surface syntax so the core
// is exercisable end-to-end without a production-grade external parser
// (SPEC_FULL.md §6/§12).
package spdlast

import (
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/verrors"
)

// Builder accumulates the static model (symbol table, protocols, initial
// intruder knowledge, claim table) a parser collaborator hands the core.
// It is the only supported construction path — the reference parser in
// this package is itself just a Builder client.
type Builder struct {
	Symbols   *symtab.Table
	Initial   *know.Set
	Claims    *claim.Table
	Protocols []*model.Protocol

	// UserTypes and SecretNames record declarations that carry no direct
	// semantic weight in the core (spec §6 `usertype`/`secret` are
	// documentation-only unless a claim references the name) but which a
	// report backend or a future type-checking pass may want.
	UserTypes   []string
	SecretNames []string

	funcSyms map[string]*term.Term // interned keyed-function head constants (pk, sk, h, ...)
}

// NewBuilder returns an empty Builder with a fresh global scope.
func NewBuilder() *Builder {
	return &Builder{
		Symbols:  symtab.New(),
		Initial:  know.New(),
		Claims:   claim.NewTable(),
		funcSyms: make(map[string]*term.Term),
	}
}

// DeclareConst interns name as a process-wide constant of the given sort
// (spec §6 `const`). Scope is always global: consts are declared before
// any protocol and visible everywhere.
func (b *Builder) DeclareConst(name string, sort symtab.Sort) *term.Term {
	sym := b.Symbols.Intern(name)
	return term.NewConstant(sym, term.Global, sort)
}

// DeclareFunction interns name as a keyed-function head (`hashfunction`,
// or one side of `inversekeyfunctions`), e.g. pk/sk. Apply builds the
// actual f(x) term.
func (b *Builder) DeclareFunction(name string) *term.Term {
	if t, ok := b.funcSyms[name]; ok {
		return t
	}
	sym := b.Symbols.Intern(name)
	t := term.NewConstant(sym, term.Global, "Function")
	b.funcSyms[name] = t
	return t
}

// Apply builds the keyed-function application fn(arg) — e.g. pk(R) — as
// an Encryption node with IsFunction set, never decryptable by unify
// (spec §3/§4.B).
func (b *Builder) Apply(fn, arg *term.Term) *term.Term {
	return term.NewEncrypt(arg, fn, true)
}

// Tuple right-folds a sequence of terms into the tree's normalised tuple
// shape (spec §3 invariant: left operand of a tuple is never itself a
// tuple).
func (b *Builder) Tuple(terms ...*term.Term) *term.Term {
	if len(terms) == 0 {
		return nil
	}
	t := terms[len(terms)-1]
	for i := len(terms) - 2; i >= 0; i-- {
		t = term.NewTuple(terms[i], t)
	}
	return t
}

// Encrypt builds {msg}key, marking key's head symbol's key-use level for
// the heuristic and hide-level lemma (spec §4.K/§4.L).
func (b *Builder) Encrypt(msg, key *term.Term) *term.Term {
	b.markKeyUse(key)
	return term.NewEncrypt(msg, key, false)
}

func (b *Builder) markKeyUse(t *term.Term) {
	switch t.Kind {
	case term.Constant, term.Variable:
		b.Symbols.MarkKeyUse(t.Sym)
	case term.Encryption:
		b.markKeyUse(t.Right)
	}
}

// DeclareInverse records k1/k2 as inverse keys or inverse key-functions
// (spec §6 `inversekeys`/`inversekeyfunctions`).
func (b *Builder) DeclareInverse(k1, k2 *term.Term) {
	b.Initial.DeclareInverse(k1, k2)
}

// AddInitialKnowledge adds t to the intruder's starting knowledge — used
// for `untrusted` agents, compromised long-term keys, and public
// constants (spec §6 `compromised`, `untrusted`).
func (b *Builder) AddInitialKnowledge(t *term.Term) {
	b.Initial.Add(t)
}

// ProtocolBuilder assembles one protocol's roles.
type ProtocolBuilder struct {
	b        *Builder
	protocol *model.Protocol
	scope    int // symtab scope every role's own agent variable is interned at
}

// BeginProtocol opens a new protocol declaration (spec §6 `protocol`). It
// pushes one symtab scope shared by every role's agent variable, so that
// role I's events can reference role R's agent regardless of which role is
// parsed first (SPDL role identifiers are visible throughout the enclosing
// protocol, not just from their own declaration point onward).
func (b *Builder) BeginProtocol(name string) *ProtocolBuilder {
	scope := b.Symbols.PushScope()
	return &ProtocolBuilder{
		b:     b,
		scope: scope,
		protocol: &model.Protocol{
			Name:     name,
			RoleVars: make(map[string]*term.Term),
		},
	}
}

// DeclareRole returns roleName's agent-variable template, interning it at
// the protocol's shared scope on first use. A parser collaborator calls
// this ahead of parsing any role body so a forward reference to a
// not-yet-parsed role resolves correctly; BeginRole also calls it, so a
// role name only ever gets one agent variable regardless of call order.
func (pb *ProtocolBuilder) DeclareRole(roleName string) *term.Term {
	if v, ok := pb.protocol.RoleVars[roleName]; ok {
		return v
	}
	sym := pb.b.Symbols.InternAt(roleName, pb.scope)
	v := term.NewVariable(sym, term.RoleScope, true, "Agent")
	pb.protocol.RoleVars[roleName] = v
	return v
}

// Symmetric marks the protocol as role-symmetric (spec §4.J: mlist-based
// partnering applies).
func (pb *ProtocolBuilder) Symmetric(v bool) *ProtocolBuilder {
	pb.protocol.Symmetric = v
	return pb
}

// End registers the finished protocol on the owning Builder and closes the
// protocol-wide role-variable scope opened by BeginProtocol.
func (pb *ProtocolBuilder) End() *model.Protocol {
	pb.b.Symbols.PopScope()
	pb.b.Protocols = append(pb.b.Protocols, pb.protocol)
	return pb.protocol
}

// RoleBuilder assembles one role's event sequence within a scope the
// symbol table has pushed for it.
type RoleBuilder struct {
	pb    *ProtocolBuilder
	role  *model.Role
	scope int
}

// BeginRole opens a role declaration, declaring (or reusing, if a prior
// forward reference via DeclareRole already did) the role's own name as a
// role-scope agent variable that fills ρ on instantiation (spec §4.B;
// model.Protocol.RoleVars). A fresh nested scope holds this role's own
// local variable declarations (`var`).
func (pb *ProtocolBuilder) BeginRole(name string) *RoleBuilder {
	agentVar := pb.DeclareRole(name)

	role := &model.Role{Name: name, NameSym: agentVar.Sym}
	pb.protocol.Roles = append(pb.protocol.Roles, role)

	scope := pb.b.Symbols.PushScope()
	return &RoleBuilder{pb: pb, role: role, scope: scope}
}

// Var declares a role-local variable of the given sort (spec §6 `var`).
func (rb *RoleBuilder) Var(name string, sort symtab.Sort) *term.Term {
	sym := rb.pb.b.Symbols.Intern(name)
	v := term.NewVariable(sym, term.RoleScope, true, sort)
	rb.role.Locals = append(rb.role.Locals, v)
	return v
}

// Agent returns the role-scope agent variable for roleName, looked up
// across every role of the enclosing protocol declared so far, whether by
// BeginRole or by a DeclareRole forward declaration — used to
// reference a peer role's agent in this role's own events (e.g. role I
// sending to role R's agent term).
func (rb *RoleBuilder) Agent(roleName string) (*term.Term, bool) {
	t, ok := rb.pb.protocol.RoleVars[roleName]
	return t, ok
}

// Send appends a send event (spec §6 `send(label, from, to, msg)`).
func (rb *RoleBuilder) Send(label string, from, to, msg *term.Term) {
	rb.role.Events = append(rb.role.Events, model.Event{Kind: model.Send, Label: label, From: from, To: to, Msg: msg})
}

// Recv appends a receive event (spec §6 `recv(label, from, to, msg)`).
func (rb *RoleBuilder) Recv(label string, from, to, msg *term.Term) {
	rb.role.Events = append(rb.role.Events, model.Event{Kind: model.Recv, Label: label, From: from, To: to, Msg: msg})
}

// Claim appends a claim event and registers it in the owning Builder's
// claim table, returning a BadSpec error on a colliding label
// (SPEC_FULL.md §13 decision 4: collision is a hard error, not a
// synthetic rename, since the reference parser controls label
// generation entirely and a collision here is always an authoring bug).
func (rb *RoleBuilder) Claim(line int, label string, kind model.ClaimKind, param *term.Term, precedence, precedenceRoles []string) error {
	idx := len(rb.role.Events)
	rb.role.Events = append(rb.role.Events, model.Event{Kind: model.ClaimEvent, Label: label, Claim: kind, ClaimParam: param})

	c := &claim.Claim{
		Label:           label,
		Kind:            kind,
		Param:           param,
		Role:            rb.role,
		Protocol:        rb.pb.protocol,
		EventIndex:      idx,
		Precedence:      precedence,
		PrecedenceRoles: precedenceRoles,
	}
	if !rb.pb.b.Claims.Add(c) {
		return verrors.BadSpecf(line, "claim label %q already declared", label)
	}
	return nil
}

// End closes the role's scope. Symbol pointers already captured in Role
// templates remain valid (spec: symtab.PopScope's documented guarantee).
func (rb *RoleBuilder) End() *model.Role {
	rb.pb.b.Symbols.PopScope()
	return rb.role
}
