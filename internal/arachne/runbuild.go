package arachne

import (
	"github.com/google/uuid"

	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// InstantiateRun builds a fresh concrete run of role within protocol at run
// index id, rewriting every role-scope leaf in role's event templates (and
// protocol's per-role agent-name templates) to id via term.Instantiation
// (spec §4.B: term_local applied per event; §3 "Runs and bindings").
// Callers still owe it a GraphBase (depend.Index.AddRun) before the run
// takes part in precedence checks.
func InstantiateRun(id int, protocol *model.Protocol, role *model.Role) *model.Run {
	inst := term.NewInstantiation(term.RoleScope, id)

	events := make([]model.Event, len(role.Events))
	for i, ev := range role.Events {
		events[i] = model.Event{
			Kind:  ev.Kind,
			Label: ev.Label,
			From:  localOrNil(inst, ev.From),
			To:    localOrNil(inst, ev.To),
			Msg:   localOrNil(inst, ev.Msg),
			Claim: ev.Claim,
		}
		events[i].ClaimParam = localOrNil(inst, ev.ClaimParam)
	}

	rho := make(map[string]*term.Term, len(protocol.Roles))
	for _, r := range protocol.Roles {
		if tmpl, ok := protocol.RoleVars[r.Name]; ok {
			rho[r.Name] = inst.Local(tmpl)
		}
	}

	sigma := make(map[*symtab.Symbol]*term.Term, len(role.Locals))
	for _, local := range role.Locals {
		if sym, ok := leafSym(local); ok {
			sigma[sym] = inst.Local(local)
		}
	}

	return &model.Run{
		ID:         id,
		ExternalID: uuid.NewString(),
		Protocol:   protocol,
		Role:       role,
		Events:     events,
		Knowledge:  know.New(),
		Rho:        rho,
		Sigma:      sigma,
	}
}

func localOrNil(inst *term.Instantiation, t *term.Term) *term.Term {
	if t == nil {
		return nil
	}
	return inst.Local(t)
}

func leafSym(t *term.Term) (*symtab.Symbol, bool) {
	if t == nil {
		return nil, false
	}
	if term.IsLeaf(t) {
		return term.Devar(t).Sym, true
	}
	return nil, false
}
