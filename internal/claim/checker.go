package claim

import (
	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
)

// Trace is a read-only view of one realized semi-trace: every binding is
// done, the dependency graph has no cycles (spec §6: "the core guarantees
// the semi-trace passed out is realizable").
type Trace struct {
	Runs     []*model.Run // Runs[i].ID == i
	Graph    *depend.Graph
	Bindings *binding.List
}

// Precedes reports whether event (r1,e1) precedes (r2,e2) under the
// trace's dependency graph.
func (tr *Trace) Precedes(r1, e1, r2, e2 int) bool {
	b1, b2 := tr.Runs[r1].GraphBase, tr.Runs[r2].GraphBase
	return tr.Graph.Precedes(depend.Node(b1, e1), depend.Node(b2, e2))
}

// CheckResult reports whether the trace constitutes an attack against the
// claim (Violated == true) and why.
type CheckResult struct {
	Violated bool
	Reason   string
}

func ok() CheckResult { return CheckResult{} }

func violated(reason string) CheckResult { return CheckResult{Violated: true, Reason: reason} }

// CheckSecret evaluates a Secret or SKR claim. The Arachne driver seeds
// the claim's own message as a goal binding pointed at the claim event;
// if that binding ends up Done in the realized trace, the intruder
// derived the secret — the claim is violated (spec §4.N: "failure to
// realize = success of the claim").
func CheckSecret(secretGoal *binding.Binding) CheckResult {
	if secretGoal.Done {
		return violated("secret term was derived by the intruder")
	}
	return ok()
}

// sameAgentSet reports whether a and b contain term-equal agent sets,
// ignoring role-name keys (spec §4.N Weak-Agree: "the same *set* of
// agents").
func sameAgentSet(a, b map[string]*term.Term) bool {
	if len(a) != len(b) {
		return false
	}
	var bvals []*term.Term
	for _, v := range b {
		bvals = append(bvals, v)
	}
	used := make([]bool, len(bvals))
	for _, av := range a {
		found := false
		for i, bv := range bvals {
			if used[i] {
				continue
			}
			if term.Equal(av, bv) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsAgent(rho map[string]*term.Term, agent *term.Term) bool {
	for _, v := range rho {
		if term.Equal(v, agent) {
			return true
		}
	}
	return false
}

// CheckWeakAgree evaluates spec §4.N's Weak-Agree rule: for every honest
// agent named in the claim run's ρ, some other run of the same protocol
// has that agent as actor and the same agent set.
func CheckWeakAgree(tr *Trace, claimRun int, isHonest func(*term.Term) bool) CheckResult {
	claim := tr.Runs[claimRun]
	for roleName, agent := range claim.Rho {
		if !isHonest(agent) {
			continue
		}
		found := false
		for _, r := range tr.Runs {
			if r.IsIntruder || r.ID == claimRun || r.Protocol != claim.Protocol {
				continue
			}
			actor, hasActor := r.Rho[roleName]
			if !hasActor || !term.Equal(actor, agent) {
				continue
			}
			if sameAgentSet(r.Rho, claim.Rho) {
				found = true
				break
			}
		}
		if !found {
			return violated("no run found acting as " + roleName + " with matching agent set")
		}
	}
	return ok()
}

// CheckAlive evaluates spec §4.N's Alive rule: every agent in ρ occurs as
// the actor of some run other than the claim run.
func CheckAlive(tr *Trace, claimRun int) CheckResult {
	claim := tr.Runs[claimRun]
	for roleName, agent := range claim.Rho {
		found := false
		for _, r := range tr.Runs {
			if r.IsIntruder || r.ID == claimRun {
				continue
			}
			if actor, ok := r.Rho[r.Role.Name]; ok && term.Equal(actor, agent) {
				found = true
				break
			}
		}
		if !found {
			return violated("agent " + roleName + " never appears as a run actor")
		}
	}
	return ok()
}

// labelRoles finds which role sends and which role receives label within
// a protocol — every label occurs in exactly one send and one recv role
// template (original_source/src/claim.c's Labelinfo.sendrole/recvrole).
func labelRoles(p *model.Protocol, label string) (sendRole, recvRole string, ok bool) {
	var hasSend, hasRecv bool
	for _, r := range p.Roles {
		for _, ev := range r.Events {
			if ev.Label != label {
				continue
			}
			if ev.Kind == model.Send {
				sendRole, hasSend = r.Name, true
			}
			if ev.Kind == model.Recv {
				recvRole, hasRecv = r.Name, true
			}
		}
	}
	return sendRole, recvRole, hasSend && hasRecv
}

// findLabelEvent finds the committed (index < run.Step) event named lbl
// of the given kind in run.
func findLabelEvent(run *model.Run, lbl string, kind model.EventKind) (*model.Event, int, bool) {
	for i := 0; i < run.Step && i < len(run.Events); i++ {
		if run.Events[i].Label == lbl && run.Events[i].Kind == kind {
			return &run.Events[i], i, true
		}
	}
	return nil, 0, false
}

// eventsMatch is spec §4.N's "identical (from, to, message, label)" test
// (original_source's events_match_rd, MATCH_CONTENT case).
func eventsMatch(a, b *model.Event) bool {
	return term.Equal(a.Msg, b.Msg) && term.Equal(a.From, b.From) && term.Equal(a.To, b.To) && a.Label == b.Label
}

// runsAgree reports whether, under a role->run mapping, every label in
// c.Precedence has a matching send and receive event (original_source's
// arachne_runs_agree).
func runsAgree(tr *Trace, c *Claim, mapping map[string]int) bool {
	for _, lbl := range c.Precedence {
		sendRole, recvRole, found := labelRoles(c.Protocol, lbl)
		if !found {
			continue
		}
		sendRunID, hasSend := mapping[sendRole]
		recvRunID, hasRecv := mapping[recvRole]
		if !hasSend || !hasRecv {
			return false
		}
		sendEv, _, foundS := findLabelEvent(tr.Runs[sendRunID], lbl, model.Send)
		recvEv, _, foundR := findLabelEvent(tr.Runs[recvRunID], lbl, model.Recv)
		if !foundS || !foundR || !eventsMatch(sendEv, recvEv) {
			return false
		}
	}
	return true
}

// assignRoles backtracks over every role named in c.PrecedenceRoles other
// than the claim's own role (already fixed to claimRun), trying every run
// of the matching protocol/role until some single consistent assignment
// makes runsAgree hold across every precedence label at once — spec
// §4.N's "an assignment of the claim's partner roles to runs ... such
// that every label ... has a matching send and receive", grounded on
// original_source/src/claim.c's fill_roles/arachne_runs_agree backtracking
// search (not independent per-label matching, which can stitch together
// inconsistent run instances and falsely accept).
func assignRoles(tr *Trace, c *Claim, claimRun int) (map[string]int, bool) {
	mapping := map[string]int{c.Role.Name: claimRun}

	var toFill []string
	for _, role := range c.PrecedenceRoles {
		if role != c.Role.Name {
			toFill = append(toFill, role)
		}
	}

	var assign func(i int) bool
	assign = func(i int) bool {
		if i == len(toFill) {
			return runsAgree(tr, c, mapping)
		}
		role := toFill[i]
		for _, r := range tr.Runs {
			if r.IsIntruder || r.Protocol != c.Protocol || r.Role.Name != role {
				continue
			}
			mapping[role] = r.ID
			if assign(i + 1) {
				return true
			}
		}
		delete(mapping, role)
		return false
	}

	if assign(0) {
		return mapping, true
	}
	return nil, false
}

// CheckNiAgree evaluates spec §4.N's NI-Agree rule: some single consistent
// assignment of partner roles to runs satisfies every label in the
// claim's precedence set.
func CheckNiAgree(tr *Trace, claimRun int, c *Claim) CheckResult {
	if _, ok := assignRoles(tr, c, claimRun); !ok {
		return violated("no consistent partner-role assignment satisfies the precedence set")
	}
	return ok()
}

// CheckNiSynch evaluates spec §4.N's NI-Synch rule: NI-Agree plus
// precedence-graph order between every label's send and receive, under
// the same winning role assignment.
func CheckNiSynch(tr *Trace, claimRun int, c *Claim) CheckResult {
	mapping, assigned := assignRoles(tr, c, claimRun)
	if !assigned {
		return violated("no consistent partner-role assignment satisfies the precedence set")
	}
	for _, lbl := range c.Precedence {
		sendRole, recvRole, found := labelRoles(c.Protocol, lbl)
		if !found {
			continue
		}
		sendRunID, recvRunID := mapping[sendRole], mapping[recvRole]
		_, sendIdx, _ := findLabelEvent(tr.Runs[sendRunID], lbl, model.Send)
		_, recvIdx, _ := findLabelEvent(tr.Runs[recvRunID], lbl, model.Recv)
		if !tr.Precedes(sendRunID, sendIdx, recvRunID, recvIdx) {
			return violated("label " + lbl + "'s send does not precede its receive in the dependency graph")
		}
	}
	return ok()
}

// CheckCommit evaluates spec §4.N's Commit(a,b,d) ⇒ Running(b,a,d) rule:
// some non-intruder run holds a Running claim event whose parameter equals
// the Commit event's (actor, peer, data) parameter and which precedes the
// Commit event. The role of the run holding the Running claim is not
// checked, and c is not consulted.
func CheckCommit(tr *Trace, commitRun, commitIdx int, c *Claim) CheckResult {
	commitEv := tr.Runs[commitRun].Events[commitIdx]
	for _, r := range tr.Runs {
		if r.IsIntruder {
			continue
		}
		for i, ev := range r.Events {
			if ev.Kind != model.ClaimEvent || ev.Claim != model.Running {
				continue
			}
			if !term.Equal(ev.ClaimParam, commitEv.ClaimParam) {
				continue
			}
			if tr.Precedes(r.ID, i, commitRun, commitIdx) {
				return ok()
			}
		}
	}
	return violated("no preceding Running claim with matching (actor, peer, data)")
}

// CheckNotEqual evaluates the NotEqual bookkeeping claim: violated if the
// two compared terms turned out equal in the realized trace.
func CheckNotEqual(left, right *term.Term) CheckResult {
	if term.Equal(left, right) {
		return violated("terms required to differ unified to the same value")
	}
	return ok()
}

// CheckReachable always reports "not violated" in the property sense —
// reaching a Reachable claim is recorded by the driver as Falsified to
// mean "a trace realizing this state was found", per spec §4.N ("Attack =
// trace reaches the claim. Not a failure").
func CheckReachable() CheckResult { return ok() }

// CheckEmpty is the no-op bookkeeping claim kind; it never fails.
func CheckEmpty() CheckResult { return ok() }
