// Package report implements the output contract (component O): the
// on_attack/on_proof/on_timeout callbacks internal/arachne's Driver drives,
// a structured in-memory Collector every backend builds from, and two
// concrete rendering backends (spec §4.O).
package report

import (
	"github.com/google/uuid"

	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/depend"
)

// RunView is the reportable projection of one realized run: enough to
// render a message-sequence diagram without exposing internal term
// pointers or the dependency graph's flat node numbering.
type RunView struct {
	Index      int               `json:"index"`
	ExternalID string            `json:"external_id"`
	Protocol   string            `json:"protocol"`
	Role       string            `json:"role"`
	Rho        map[string]string `json:"rho"`
	IsIntruder bool              `json:"is_intruder"`
}

// BindingView is the reportable projection of one binding-list entry.
type BindingView struct {
	Term                 string `json:"term"`
	RunTo                int    `json:"run_to"`
	EvTo                 int    `json:"ev_to"`
	RunFrom              int    `json:"run_from"`
	EvFrom               int    `json:"ev_from"`
	FromInitialKnowledge bool   `json:"from_initial_knowledge"`
	Synthetic            bool   `json:"synthetic"`
}

// AttackReport is the structured form of spec §4.O's on_attack(semi_trace):
// run list, binding list, dependency edges, keyed by a stable ID so an
// emitter backend and a later lookup agree on "which attack".
type AttackReport struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Protocol string `json:"protocol"`

	Runs     []RunView     `json:"runs"`
	Bindings []BindingView `json:"bindings"`
	Edges    []depend.Edge `json:"edges"`
}

// ProofReport is the structured form of on_proof(depth, step_count).
type ProofReport struct {
	Label     string `json:"label"`
	Depth     int    `json:"depth"`
	StepCount int    `json:"step_count"`
}

// TimeoutReport is the structured form of on_timeout().
type TimeoutReport struct {
	Label string `json:"label"`
}

// Collector accumulates every report the driver emits for later rendering.
// It satisfies internal/arachne.Reporter by structure (OnAttack/OnProof/
// OnTimeout) without importing that package, since the driver only needs
// the method set, not the type.
type Collector struct {
	Attacks  []AttackReport
	Proofs   []ProofReport
	Timeouts []TimeoutReport
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

func (c *Collector) OnAttack(cl *claim.Claim, tr *claim.Trace) {
	c.Attacks = append(c.Attacks, buildAttackReport(cl, tr))
}

func (c *Collector) OnProof(cl *claim.Claim, depth, stepCount int) {
	c.Proofs = append(c.Proofs, ProofReport{Label: cl.Label, Depth: depth, StepCount: stepCount})
}

func (c *Collector) OnTimeout(cl *claim.Claim) {
	c.Timeouts = append(c.Timeouts, TimeoutReport{Label: cl.Label})
}

func buildAttackReport(cl *claim.Claim, tr *claim.Trace) AttackReport {
	runs := make([]RunView, 0, len(tr.Runs))
	for _, r := range tr.Runs {
		rho := make(map[string]string, len(r.Rho))
		for role, agent := range r.Rho {
			rho[role] = agent.String()
		}
		runs = append(runs, RunView{
			Index:      r.ID,
			ExternalID: r.ExternalID,
			Protocol:   r.Protocol.Name,
			Role:       r.Role.Name,
			Rho:        rho,
			IsIntruder: r.IsIntruder,
		})
	}

	bindings := make([]BindingView, 0, tr.Bindings.Len())
	for _, b := range tr.Bindings.Items() {
		bindings = append(bindings, BindingView{
			Term:                 b.Term.String(),
			RunTo:                b.RunTo,
			EvTo:                 b.EvTo,
			RunFrom:              b.RunFrom,
			EvFrom:               b.EvFrom,
			FromInitialKnowledge: b.FromInitialKnowledge,
			Synthetic:            b.Synthetic,
		})
	}

	return AttackReport{
		ID:       uuid.NewString(),
		Label:    cl.Label,
		Kind:     cl.Kind.String(),
		Protocol: cl.Protocol.Name,
		Runs:     runs,
		Bindings: bindings,
		Edges:    tr.Graph.Edges(),
	}
}
