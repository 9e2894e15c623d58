package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

func sampleTrace(tab *symtab.Table) (*claim.Claim, *claim.Trace) {
	aVar := term.NewVariable(tab.Intern("A"), 0, true, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("s"), 0, symtab.Sort("Nonce"))

	role := &model.Role{Name: "A"}
	protocol := &model.Protocol{Name: "P", Roles: []*model.Role{role}}
	cl := &claim.Claim{Label: "P_A1", Kind: model.Secret, Role: role, Protocol: protocol}

	run := &model.Run{ID: 0, ExternalID: "run-0", Protocol: protocol, Role: role, GraphBase: 0, Rho: map[string]*term.Term{"A": aVar}}

	graph := depend.New()
	graph.Grow(2)
	graph.Push(depend.Node(0, 0), depend.Node(0, 1))

	bl := binding.NewList()
	b := binding.New(secret, run.ID, 0, 0)
	b.Satisfy(-1, -1)
	b.FromInitialKnowledge = true
	bl.Add(b)

	tr := &claim.Trace{Runs: []*model.Run{run}, Graph: graph, Bindings: bl}
	return cl, tr
}

func TestCollectorBuildsAttackReport(t *testing.T) {
	tab := symtab.New()
	cl, tr := sampleTrace(tab)

	c := NewCollector()
	c.OnAttack(cl, tr)

	require.Len(t, c.Attacks, 1)
	got := c.Attacks[0]
	require.NotEmpty(t, got.ID)

	want := AttackReport{
		ID:       got.ID, // generated, compared separately
		Label:    "P_A1",
		Kind:     "Secret",
		Protocol: "P",
		Runs: []RunView{
			{Index: 0, ExternalID: "run-0", Protocol: "P", Role: "A", Rho: map[string]string{"A": "A#0"}},
		},
		Bindings: []BindingView{
			{Term: "s#0", RunTo: 0, EvTo: 0, RunFrom: -1, EvFrom: -1, FromInitialKnowledge: true},
		},
		Edges: []depend.Edge{{From: 0, To: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("attack report mismatch (-want +got):\n%s", diff)
	}
}

func TestTextBackendRendersAttack(t *testing.T) {
	tab := symtab.New()
	cl, tr := sampleTrace(tab)
	c := NewCollector()
	c.OnAttack(cl, tr)
	c.OnTimeout(cl)

	var buf bytes.Buffer
	require.NoError(t, NewTextBackend(&buf).WriteAll(c))

	out := buf.String()
	require.True(t, strings.Contains(out, "FALSIFIED P_A1"))
	require.True(t, strings.Contains(out, "TIMED OUT P_A1"))
}

func TestJSONBackendEncodesProof(t *testing.T) {
	c := NewCollector()
	c.OnProof(&claim.Claim{Label: "P_A1"}, 12, 3)

	var buf bytes.Buffer
	require.NoError(t, NewJSONBackend(&buf).WriteAll(c))
	require.True(t, strings.Contains(buf.String(), `"label": "P_A1"`))
}
