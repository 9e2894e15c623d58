package arachne

import (
	"testing"

	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/verifier"
	"github.com/dyverify/arachne/internal/vlog"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	attacks int
	proofs  int
	timeout int
}

func (r *recordingReporter) OnAttack(c *claim.Claim, tr *claim.Trace)    { r.attacks++ }
func (r *recordingReporter) OnProof(c *claim.Claim, depth, steps int)    { r.proofs++ }
func (r *recordingReporter) OnTimeout(c *claim.Claim)                    { r.timeout++ }

// leakyProtocol sends the claimed secret in the clear: an attack must be
// found immediately against run 0's own send.
func leakyProtocol(tab *symtab.Table) (*model.Protocol, *claim.Claim) {
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	bVar := term.NewVariable(tab.Intern("B"), term.RoleScope, true, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("s"), term.RoleScope, symtab.Sort("Nonce"))

	role := &model.Role{
		Name: "A",
		Events: []model.Event{
			{Kind: model.Send, From: aVar, To: bVar, Msg: secret},
			{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: secret},
		},
	}
	protocol := &model.Protocol{
		Name:     "Leak",
		Roles:    []*model.Role{role},
		RoleVars: map[string]*term.Term{"A": aVar},
	}
	c := &claim.Claim{Label: "Leak_A1", Kind: model.Secret, Param: secret, Role: role, Protocol: protocol, EventIndex: 1}
	return protocol, c
}

// guardedProtocol encrypts the claimed secret under a key never exposed
// anywhere else in the model: no attack should be found.
func guardedProtocol(tab *symtab.Table) (*model.Protocol, *claim.Claim) {
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	bVar := term.NewVariable(tab.Intern("B"), term.RoleScope, true, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("s"), term.RoleScope, symtab.Sort("Nonce"))
	key := term.NewConstant(tab.Intern("k"), term.RoleScope, symtab.Sort("SessionKey"))
	cipher := term.NewEncrypt(secret, key, false)

	role := &model.Role{
		Name: "A",
		Events: []model.Event{
			{Kind: model.Send, From: aVar, To: bVar, Msg: cipher},
			{Kind: model.ClaimEvent, Claim: model.Secret, ClaimParam: secret},
		},
	}
	protocol := &model.Protocol{
		Name:     "Guarded",
		Roles:    []*model.Role{role},
		RoleVars: map[string]*term.Term{"A": aVar},
	}
	c := &claim.Claim{Label: "Guarded_A1", Kind: model.Secret, Param: secret, Role: role, Protocol: protocol, EventIndex: 1}
	return protocol, c
}

func newDriverContext(protocol *model.Protocol, tab *symtab.Table) *verifier.Context {
	sw := switches.Default()
	ctx := verifier.New(sw, vlog.NewNop(), tab, []*model.Protocol{protocol}, know.New(), claim.NewTable())
	return ctx
}

func TestDriverFindsAttackOnCleartextSecret(t *testing.T) {
	tab := symtab.New()
	protocol, c := leakyProtocol(tab)
	ctx := newDriverContext(protocol, tab)
	reporter := &recordingReporter{}

	result := New(ctx, c, reporter).Run()

	require.Equal(t, claim.Falsified, result.Verdict)
	require.Equal(t, 1, reporter.attacks)
}

func TestDriverVerifiesEncryptedSecret(t *testing.T) {
	tab := symtab.New()
	protocol, c := guardedProtocol(tab)
	ctx := newDriverContext(protocol, tab)
	reporter := &recordingReporter{}

	result := New(ctx, c, reporter).Run()

	require.Equal(t, claim.Verified, result.Verdict)
	require.Equal(t, 0, reporter.attacks)
}

func TestDriverReachableClaimAlwaysFalsifies(t *testing.T) {
	tab := symtab.New()
	aVar := term.NewVariable(tab.Intern("A"), term.RoleScope, true, symtab.Sort("Agent"))
	role := &model.Role{
		Name:   "A",
		Events: []model.Event{{Kind: model.ClaimEvent, Claim: model.Reachable}},
	}
	protocol := &model.Protocol{Name: "Reach", Roles: []*model.Role{role}, RoleVars: map[string]*term.Term{"A": aVar}}
	c := &claim.Claim{Label: "Reach_A1", Kind: model.Reachable, Role: role, Protocol: protocol, EventIndex: 0}
	ctx := newDriverContext(protocol, tab)
	reporter := &recordingReporter{}

	result := New(ctx, c, reporter).Run()

	require.Equal(t, claim.Falsified, result.Verdict)
	require.Equal(t, 1, reporter.attacks)
}
