// Package compromise implements the long-term/session-key/state reveal
// rules and the partner-run computation they depend on (component J).
package compromise

import (
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// LKRMode is the long-term-key-reveal enablement condition, spec §4.J.
type LKRMode uint8

const (
	LKROthers LKRMode = iota
	LKRActor
	LKRAfter
	LKRAfterOurs
	LKRAfterCorrect
)

// OthersEnabled reports whether agent may be revealed under the "others"
// condition: it names nobody in the claim run's ρ.
func OthersEnabled(claimRun *model.Run, agent *term.Term) bool {
	for _, a := range claimRun.Rho {
		if term.Equal(a, agent) {
			return false
		}
	}
	return true
}

// ActorEnabled reports whether the claim run's own actor may be revealed
// under the "actor" condition: its rolename's agent does not also occur,
// under a different role, elsewhere in ρ (spec §4.J: "variables with
// multiplicity >1 fail this check").
func ActorEnabled(claimRun *model.Run) bool {
	actor, ok := claimRun.Rho[claimRun.Role.Name]
	if !ok {
		return false
	}
	count := 0
	for _, a := range claimRun.Rho {
		if term.Equal(a, actor) {
			count++
		}
	}
	return count == 1
}

func ownAgent(claimRun *model.Run, agent *term.Term) bool {
	actor, ok := claimRun.Rho[claimRun.Role.Name]
	return ok && term.Equal(actor, agent)
}

func protocolFullyRun(protocol *model.Protocol, allRuns []*model.Run) bool {
	for _, r := range allRuns {
		if r.IsIntruder || r.Protocol != protocol {
			continue
		}
		if r.Step < len(r.Events) {
			return false
		}
	}
	return true
}

// AfterEnabled evaluates the after/after_ours/after_correct LKR timing
// variants. precedesClaimLast reports whether the candidate reveal event
// has already been given (or can be given) a precedence edge after the
// claim run's last event — the driver computes this against its
// depend.Graph before calling in (spec §4.J: "the search adds the
// corresponding precedence edge when feasible, otherwise prunes").
func AfterEnabled(mode LKRMode, claimRun *model.Run, agent *term.Term, allRuns []*model.Run, precedesClaimLast bool) bool {
	switch mode {
	case LKRAfter:
		return precedesClaimLast
	case LKRAfterOurs:
		return ownAgent(claimRun, agent) && precedesClaimLast
	case LKRAfterCorrect:
		return ownAgent(claimRun, agent) && protocolFullyRun(claimRun.Protocol, allRuns) && precedesClaimLast
	default:
		return true
	}
}

// LKREnabled dispatches to the right enablement condition for mode.
// For the timing variants the caller must have already evaluated
// precedesClaimLast against the dependency graph.
func LKREnabled(mode LKRMode, claimRun *model.Run, agent *term.Term, allRuns []*model.Run, precedesClaimLast bool) bool {
	switch mode {
	case LKROthers:
		return OthersEnabled(claimRun, agent)
	case LKRActor:
		return ActorEnabled(claimRun)
	default:
		return AfterEnabled(mode, claimRun, agent, allRuns, precedesClaimLast)
	}
}

func devarLeafSym(t *term.Term) (*symtab.Symbol, bool) {
	t = term.Devar(t)
	if term.IsLeaf(t) {
		return t.Sym, true
	}
	return nil, false
}

func hasSort(t *term.Term, sort symtab.Sort) bool {
	t = term.Devar(t)
	for _, s := range t.Sorts {
		if s == sort {
			return true
		}
	}
	return false
}

func appendIfNewSymbol(out []*term.Term, seen map[*symtab.Symbol]bool, t *term.Term) []*term.Term {
	sym, ok := devarLeafSym(t)
	if !ok || seen[sym] {
		return out
	}
	seen[sym] = true
	return append(out, t)
}

func collectSKR(t *term.Term, seen map[*symtab.Symbol]bool, out *[]*term.Term) {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		if hasSort(t, symtab.Sort("SessionKey")) {
			*out = appendIfNewSymbol(*out, seen, t)
		}
	case term.Tuple:
		collectSKR(t.Left, seen, out)
		collectSKR(t.Right, seen, out)
	case term.Encryption:
		collectSKR(t.Left, seen, out)
		collectSKR(t.Right, seen, out)
	}
}

// CollectSKR scans r for SessionKey-sorted leaves — "defining a variable
// or constant with the SessionKey type makes it available through
// session-key reveal queries" (original compromise.c's learnFromMessage,
// COMPR_SKR case). An explicit `claim(_, SKR, param)` event's parameter
// always counts; when infer is false (switches.SKRInfer off), that is the
// only source — session keys are not inferred from ordinary send/recv
// templates' sorts, matching Scyther's skr_infer switch.
func CollectSKR(r *model.Role, infer bool) []*term.Term {
	seen := make(map[*symtab.Symbol]bool)
	var out []*term.Term
	for _, ev := range r.Events {
		switch {
		case ev.Kind == model.ClaimEvent && ev.Claim == model.SKR:
			collectSKR(ev.ClaimParam, seen, &out)
		case infer && (ev.Kind == model.Send || ev.Kind == model.Recv):
			collectSKR(ev.Msg, seen, &out)
		}
	}
	return out
}

func isLocal(sym *symtab.Symbol, locals []*term.Term) bool {
	for _, l := range locals {
		if s, ok := devarLeafSym(l); ok && s == sym {
			return true
		}
	}
	return false
}

func appendIfNewTerm(out []*term.Term, t *term.Term) []*term.Term {
	for _, e := range out {
		if term.Equal(e, t) {
			return out
		}
	}
	return append(out, t)
}

// collectSSR returns whether t itself contains a role-local leaf, so a
// caller one level up (an enclosing encryption) can decide whether to
// also reveal the whole ciphertext under the SSRfilter switch.
func collectSSR(t *term.Term, locals []*term.Term, filter bool, seen map[*symtab.Symbol]bool, out *[]*term.Term) bool {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		if isLocal(t.Sym, locals) {
			*out = appendIfNewSymbol(*out, seen, t)
			return true
		}
		return false
	case term.Tuple:
		left := collectSSR(t.Left, locals, filter, seen, out)
		right := collectSSR(t.Right, locals, filter, seen, out)
		return left || right
	case term.Encryption:
		plainHasLocal := collectSSR(t.Left, locals, filter, seen, out)
		collectSSR(t.Right, locals, filter, seen, out)
		if filter && plainHasLocal {
			*out = appendIfNewTerm(*out, t)
		}
		return plainHasLocal
	}
	return false
}

// CollectSSR scans r's message templates for role-local leaves — state
// fragments exposed by a state-reveal (SSR) compromise event (original
// compromise.c's learnFromMessage, COMPR_SSR case). When filter is true
// (switches.SSRFilter), an entire encryption containing a local leaf is
// also revealed as one opaque term, not just the local leaf itself.
func CollectSSR(r *model.Role, filter bool) []*term.Term {
	seen := make(map[*symtab.Symbol]bool)
	var out []*term.Term
	for _, ev := range r.Events {
		if ev.Kind == model.Send || ev.Kind == model.Recv {
			collectSSR(ev.Msg, r.Locals, filter, seen, &out)
		}
	}
	return out
}
