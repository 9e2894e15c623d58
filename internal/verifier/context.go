// Package verifier threads the explicit state a process-wide global would
// otherwise hold: symbol table, protocols, the live run/binding/graph
// triple, switches, and counters — so the core never touches a package
// variable (spec §9 design notes; component "M" driver plumbing).
package verifier

import (
	"time"

	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/heuristic"
	"github.com/dyverify/arachne/internal/hidelevel"
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/vlog"
)

// Context is the mutable search state passed explicitly through every
// driver call, instead of process-wide globals.
type Context struct {
	Switches switches.Switches
	Log      *vlog.Logger

	Symbols   *symtab.Table
	Protocols []*model.Protocol
	Initial   *know.Set
	Hide      *hidelevel.Table
	Scorer    *heuristic.Scorer

	Runs     []*model.Run
	RunIndex *depend.Index
	Graph    *depend.Graph
	Bindings *binding.List
	Claims   *claim.Table

	Metrics *Metrics

	deadline        time.Time
	hasDeadline     bool
	intruderActions int
	attacksFound    int
	statesVisited   int
	proofDepth      int
}

// New builds a Context ready for the driver. Caller supplies the static
// model (symbols, protocols, initial knowledge, claims) already built by
// the input collaborator.
func New(sw switches.Switches, log *vlog.Logger, symbols *symtab.Table, protocols []*model.Protocol, initial *know.Set, claims *claim.Table) *Context {
	ctx := &Context{
		Switches: sw,
		Log:      log,
		Symbols:  symbols,
		Protocols: protocols,
		Initial:  initial,
		Claims:   claims,
		RunIndex: depend.NewIndex(),
		Graph:    depend.New(),
		Bindings: binding.NewList(),
		Metrics:  NewMetrics(),
	}
	ctx.Hide = hidelevel.Build(protocols, initial)
	ctx.Scorer = &heuristic.Scorer{Mask: sw.Heuristic, Hide: ctx.Hide}
	if sw.TimeLimitSeconds > 0 {
		ctx.deadline = time.Now().Add(time.Duration(sw.TimeLimitSeconds) * time.Second)
		ctx.hasDeadline = true
	}
	return ctx
}

// CheckTimeLimit is polled before every recursive step and at the top of
// every prune pass (spec §5).
func (c *Context) CheckTimeLimit() bool {
	return c.hasDeadline && time.Now().After(c.deadline)
}

// IntruderActions returns the running count of intruder-construction
// refinements applied in the current search branch.
func (c *Context) IntruderActions() int { return c.intruderActions }

func (c *Context) IncrIntruderActions() { c.intruderActions++ }

func (c *Context) DecrIntruderActions() { c.intruderActions-- }

// ProofDepth returns the current recursion depth of the driver's iterate
// loop, bounded by Switches.MaxProofDepth.
func (c *Context) ProofDepth() int { return c.proofDepth }

func (c *Context) IncrDepth() { c.proofDepth++ }

func (c *Context) DecrDepth() { c.proofDepth-- }

func (c *Context) AttacksFound() int { return c.attacksFound }

func (c *Context) RecordAttack() {
	c.attacksFound++
	c.Metrics.AttacksFound.Inc()
}

func (c *Context) StatesVisited() int { return c.statesVisited }

func (c *Context) VisitState() {
	c.statesVisited++
	c.Metrics.StatesVisited.Inc()
}

// TraceLength is the sum of Step over all runs, used by PruneBounds
// against MaxTraceLength.
func (c *Context) TraceLength() int {
	total := 0
	for _, r := range c.Runs {
		total += r.Step
	}
	return total
}
