package verifier

import (
	"github.com/dyverify/arachne/internal/compromise"
	"github.com/dyverify/arachne/internal/hidelevel"
	"github.com/dyverify/arachne/internal/term"
)

// PruneBounds reports whether the current state must be abandoned
// because it exceeds a caller-supplied resource bound (spec §5
// "Resource policy" / §4.M pruneBounds).
func (c *Context) PruneBounds() bool {
	if c.CheckTimeLimit() {
		return true
	}
	sw := c.Switches
	if sw.MaxRuns > 0 && len(c.Runs) > sw.MaxRuns {
		return true
	}
	if sw.MaxTraceLength > 0 && c.TraceLength() > sw.MaxTraceLength {
		return true
	}
	if sw.MaxProofDepth > 0 && c.proofDepth > sw.MaxProofDepth {
		return true
	}
	if sw.MaxIntruderActions > 0 && c.intruderActions > sw.MaxIntruderActions {
		return true
	}
	if sw.MaxAttacks > 0 && c.attacksFound >= sw.MaxAttacks {
		return true
	}
	return false
}

// PruneTheorems reports whether any still-open, selectable binding names
// a basic term whose hide-level is Impossible: no sequence of refinements
// can ever satisfy it (spec §4.L).
func (c *Context) PruneTheorems() bool {
	if c.Switches.Prune < 2 {
		return false
	}
	for _, b := range c.Bindings.Selectable() {
		if impossibleSubterm(c.Hide, b.Term) {
			return true
		}
	}
	return false
}

func impossibleSubterm(h *hidelevel.Table, t *term.Term) bool {
	t = term.Devar(t)
	if term.IsLeaf(t) {
		return h.LevelOf(t) == hidelevel.Impossible
	}
	switch t.Kind {
	case term.Tuple, term.Encryption:
		return impossibleSubterm(h, t.Left) || impossibleSubterm(h, t.Right)
	}
	return false
}

// PruneClaim reports whether the current state violates a compromise
// precondition: a partner run that is SKR/SSR compromised (spec §4.J /
// original_source/src/compromise.c's compromisePrune).
func (c *Context) PruneClaim(isRunCompromised func(run int) (skrOrSSR bool)) bool {
	if c.Switches.Prune < 3 {
		return false
	}
	if !(c.Switches.SSR || c.Switches.SKR || c.Switches.RNR) {
		return false
	}
	for _, r := range c.Runs {
		if r.Partner && isRunCompromised(r.ID) {
			return true
		}
	}
	return false
}

// LKREnabled is a thin forward to internal/compromise, kept on Context so
// the driver has one place to ask "can I reveal this agent's long-term
// key right now".
func (c *Context) LKREnabled(claimRun int, agent *term.Term, precedesClaimLast bool) bool {
	if claimRun < 0 || claimRun >= len(c.Runs) {
		return false
	}
	return compromise.LKREnabled(c.Switches.LKRMode, c.Runs[claimRun], agent, c.Runs, precedesClaimLast)
}
