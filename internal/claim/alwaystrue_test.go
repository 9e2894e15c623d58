package claim

import (
	"testing"

	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/stretchr/testify/require"
)

func TestDetectAlwaysTrueFiresWhenParamNeverReceived(t *testing.T) {
	tab := symtab.New()
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	bVar := term.NewVariable(tab.Intern("B"), term.RoleScope, true, symtab.Sort("Agent"))
	received := term.NewConstant(tab.Intern("m"), term.RoleScope, symtab.Sort("Nonce"))
	local := term.NewConstant(tab.Intern("never-sent"), term.RoleScope, symtab.Sort("Nonce"))

	role := &model.Role{
		Name: "A",
		Events: []model.Event{
			{Kind: model.Recv, From: bVar, To: aVar, Msg: received},
			{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: local},
		},
	}
	protocol := &model.Protocol{Name: "P", Roles: []*model.Role{role}}
	c := &Claim{Label: "P_A1", Kind: model.Secret, Param: local, Role: role, Protocol: protocol}

	require.True(t, DetectAlwaysTrue([]*model.Protocol{protocol}, c))
}

func TestDetectAlwaysTrueFalseWhenParamOccursInRecv(t *testing.T) {
	tab := symtab.New()
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	bVar := term.NewVariable(tab.Intern("B"), term.RoleScope, true, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("s"), term.RoleScope, symtab.Sort("Nonce"))
	wrapped := term.NewTuple(secret, bVar)

	role := &model.Role{
		Name: "A",
		Events: []model.Event{
			{Kind: model.Recv, From: bVar, To: aVar, Msg: wrapped},
			{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: secret},
		},
	}
	protocol := &model.Protocol{Name: "P", Roles: []*model.Role{role}}
	c := &Claim{Label: "P_A1", Kind: model.Secret, Param: secret, Role: role, Protocol: protocol}

	require.False(t, DetectAlwaysTrue([]*model.Protocol{protocol}, c))
}

func TestDetectAlwaysTrueFalseWithNoRecvAtAll(t *testing.T) {
	tab := symtab.New()
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("s"), term.RoleScope, symtab.Sort("Nonce"))

	role := &model.Role{
		Name:   "A",
		Events: []model.Event{{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: secret}},
	}
	protocol := &model.Protocol{Name: "P", Roles: []*model.Role{role}}
	c := &Claim{Label: "P_A1", Kind: model.Secret, Param: secret, Role: role, Protocol: protocol}

	require.False(t, DetectAlwaysTrue([]*model.Protocol{protocol}, c))
}
