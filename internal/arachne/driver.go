// Package arachne implements the backward, constraint-based search driver
// (component M): prune, select a goal via internal/heuristic, refine it by
// binding to an existing send, a freshly instantiated run, or an intruder
// construction — recursing until no goal remains, at which point the
// realized semi-trace is handed to internal/claim for a verdict (spec
// §4.M). original_source/src/arachne.c itself is not present in the
// retrieval pack (only arachne.h's declarations survived distillation), so
// this package is grounded on spec.md §4.M's pseudocode together with the
// already-built depend/binding/unify/know/compromise/heuristic packages —
// see DESIGN.md.
package arachne

import (
	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/compromise"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/unify"
	"github.com/dyverify/arachne/internal/verifier"
)

// Reporter receives search outcomes as they are produced — the contract an
// external caller (component O's concrete backend) implements (spec §4.O:
// on_attack/on_proof/on_timeout).
type Reporter interface {
	OnAttack(c *claim.Claim, tr *claim.Trace)
	OnProof(c *claim.Claim, depth, stepCount int)
	OnTimeout(c *claim.Claim)
}

// Driver runs one claim's Arachne search against a freshly seeded state.
// One Driver evaluates exactly one claim; the caller builds a fresh
// verifier.Context (or clears Runs/Bindings/Graph/RunIndex) per claim.
type Driver struct {
	ctx      *verifier.Context
	trail    *unify.Trail
	claim    *claim.Claim
	reporter Reporter

	claimRunID  int
	secretGoal  *binding.Binding // non-nil only for Secret/SKR claims
	compromised []*term.Term     // agents whose long-term key was revealed during this search
	bounded     bool             // a resource bound cut off at least one branch; verdict can't be Verified

	// compromisedRuns records, per run ID, whether an SKR/SSR reveal has
	// supplied that run's session key or local state to the intruder in
	// the current branch (spec §4.J). Consulted by PruneClaim.
	compromisedRuns map[int]bool
}

// New prepares a driver for evaluating c.
func New(ctx *verifier.Context, c *claim.Claim, reporter Reporter) *Driver {
	return &Driver{ctx: ctx, trail: unify.NewTrail(), claim: c, reporter: reporter, claimRunID: -1}
}

// Run seeds the claim run, searches to exhaustion or to a resource bound,
// and returns the aggregate verdict for c (spec §6 "Exit semantics").
func (d *Driver) Run() claim.Result {
	if claim.DetectAlwaysTrue(d.ctx.Protocols, d.claim) {
		d.ctx.Log.Warnf("claim %s: alwaystrue — parameter never occurs in a recv, skipping search", d.claim.Label)
		if d.reporter != nil {
			d.reporter.OnProof(d.claim, 0, 0)
		}
		return claim.Result{Claim: d.claim, Verdict: claim.Verified, AlwaysTrue: true}
	}

	d.seed()
	d.iterate()

	if d.ctx.CheckTimeLimit() {
		if d.reporter != nil {
			d.reporter.OnTimeout(d.claim)
		}
		return claim.Result{Claim: d.claim, Verdict: claim.TimedOut}
	}
	if d.ctx.AttacksFound() > 0 {
		return claim.Result{Claim: d.claim, Verdict: claim.Falsified}
	}
	if d.bounded {
		if d.reporter != nil {
			d.reporter.OnProof(d.claim, d.ctx.Switches.MaxProofDepth, d.ctx.TraceLength())
		}
		return claim.Result{Claim: d.claim, Verdict: claim.Bounded}
	}
	if d.reporter != nil {
		d.reporter.OnProof(d.claim, d.ctx.Switches.MaxProofDepth, d.ctx.TraceLength())
	}
	return claim.Result{Claim: d.claim, Verdict: claim.Verified}
}

// seed installs the claim's own run (run 0), its honest prefix up to and
// including the claim event, and — for Secret/SKR — the derivability goal
// that stands in for "the intruder learns the secret" (spec §4.M / §4.N).
func (d *Driver) seed() {
	p := d.claim.Protocol
	r := d.claim.Role

	run0 := InstantiateRun(0, p, r)
	run0.Step = d.claim.EventIndex + 1

	base := d.ctx.RunIndex.AddRun(len(run0.Events))
	run0.GraphBase = base
	d.ctx.Graph.Grow(len(run0.Events))
	for i := 0; i+1 < run0.Step; i++ {
		d.ctx.Graph.Push(depend.Node(base, i), depend.Node(base, i+1))
	}

	d.ctx.Runs = append(d.ctx.Runs, run0)
	d.ctx.Metrics.ActiveRuns.Set(1)
	d.claimRunID = 0

	for i := 0; i < run0.Step; i++ {
		ev := run0.Events[i]
		switch ev.Kind {
		case model.Send:
			d.ctx.Initial.Add(ev.Msg)
		case model.Recv:
			b := binding.New(ev.Msg, run0.ID, i, term.EncryptionLevel(ev.Msg))
			d.ctx.Bindings.Add(b)
		}
	}

	switch d.claim.Kind {
	case model.Secret, model.SKR:
		param := run0.Events[d.claim.EventIndex].ClaimParam
		d.secretGoal = binding.New(param, run0.ID, d.claim.EventIndex, term.EncryptionLevel(param))
		d.ctx.Bindings.Add(d.secretGoal)
	}
}

// iterate is the recursive prune -> select -> refine loop (spec §4.M
// pseudocode). It returns true when the search must stop everywhere
// because Switches.MaxAttacks has been reached.
func (d *Driver) iterate() bool {
	if d.ctx.PruneBounds() {
		d.bounded = true
		return d.ctx.Switches.MaxAttacks > 0 && d.ctx.AttacksFound() >= d.ctx.Switches.MaxAttacks
	}
	if d.ctx.PruneTheorems() {
		return false
	}
	if d.ctx.PruneClaim(d.runCompromised) {
		return false
	}

	d.ctx.VisitState()
	d.ctx.IncrDepth()
	defer d.ctx.DecrDepth()

	goal := d.ctx.Scorer.Select(d.ctx.Bindings.Items())
	if goal == nil {
		return d.propertyCheck()
	}

	if d.bindExisting(goal) {
		return true
	}
	if d.bindNewRun(goal) {
		return true
	}
	return d.bindIntruder(goal)
}

// isHonest reports whether agent has not had its long-term key revealed by
// an LKR refinement earlier in this branch (spec §4.J: honesty for
// Weak-Agree is defined relative to the compromise model in force).
func (d *Driver) isHonest(agent *term.Term) bool {
	for _, c := range d.compromised {
		if term.Equal(c, agent) {
			return false
		}
	}
	return true
}

// propertyCheck runs once no selectable binding remains: the state is a
// fully realized semi-trace, and the claim's verdict-specific checker from
// internal/claim decides whether it constitutes an attack (spec §4.N).
func (d *Driver) propertyCheck() bool {
	partners := compromise.ComputePartners(d.ctx.Switches.PartnerDef, d.ctx.Runs[d.claimRunID], d.claim, d.ctx.Runs, d.ctx.Graph)
	compromise.ApplyPartners(partners, d.ctx.Runs)

	tr := &claim.Trace{Runs: d.ctx.Runs, Graph: d.ctx.Graph, Bindings: d.ctx.Bindings}

	var res claim.CheckResult
	switch d.claim.Kind {
	case model.Secret, model.SKR:
		res = claim.CheckSecret(d.secretGoal)
	case model.Alive:
		res = claim.CheckAlive(tr, d.claimRunID)
	case model.WeakAgree:
		res = claim.CheckWeakAgree(tr, d.claimRunID, d.isHonest)
	case model.NiAgree:
		res = claim.CheckNiAgree(tr, d.claimRunID, d.claim)
	case model.NiSynch:
		res = claim.CheckNiSynch(tr, d.claimRunID, d.claim)
	case model.Commit:
		res = claim.CheckCommit(tr, d.claimRunID, d.claim.EventIndex, d.claim)
	case model.Reachable:
		res = claim.CheckResult{Violated: true, Reason: "a trace reaching this state was found"}
	case model.NotEqual:
		res = d.checkNotEqual()
	default:
		res = claim.CheckEmpty()
	}

	if !res.Violated {
		return false
	}

	d.ctx.Log.Infof("claim %s falsified: %s", d.claim.Label, res.Reason)
	d.ctx.RecordAttack()
	if d.reporter != nil {
		d.reporter.OnAttack(d.claim, tr)
	}
	return d.ctx.Switches.MaxAttacks > 0 && d.ctx.AttacksFound() >= d.ctx.Switches.MaxAttacks
}

func (d *Driver) checkNotEqual() claim.CheckResult {
	p := term.Devar(d.ctx.Runs[d.claimRunID].Events[d.claim.EventIndex].ClaimParam)
	if p.Kind != term.Tuple {
		return claim.CheckEmpty()
	}
	return claim.CheckNotEqual(p.Left, p.Right)
}
