package arachne

import (
	"testing"

	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/stretchr/testify/require"
)

func TestInstantiateRunRewritesRoleScopeLeaves(t *testing.T) {
	tab := symtab.New()
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	nonce := term.NewConstant(tab.Intern("n"), term.RoleScope, symtab.Sort("Nonce"))

	role := &model.Role{
		Name: "I",
		Events: []model.Event{
			{Kind: model.Send, From: aVar, Msg: nonce},
			{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: nonce},
		},
	}
	protocol := &model.Protocol{Name: "P", Roles: []*model.Role{role}, RoleVars: map[string]*term.Term{"I": aVar}}

	run := InstantiateRun(3, protocol, role)

	require.Equal(t, 3, run.Events[0].Msg.RunID)
	require.True(t, term.Equal(run.Events[0].Msg, run.Events[1].ClaimParam),
		"the same role-scope leaf must instantiate to an equal run-local leaf")
	require.Equal(t, 3, run.Rho["I"].RunID)
}
