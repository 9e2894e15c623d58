package arachne

import (
	"sort"

	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/compromise"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/termlist"
	"github.com/dyverify/arachne/internal/unify"
)

// --- refinement 1: bind to an existing, already-committed send ---

// bindExisting tries to satisfy goal against every Send event already
// committed (index < run.Step) in every run currently in the state,
// oldest run first (spec §5's deterministic refinement ordering).
func (d *Driver) bindExisting(goal *binding.Binding) bool {
	goalRun := d.ctx.Runs[goal.RunTo]
	goalNode := depend.Node(goalRun.GraphBase, goal.EvTo)

	for _, r := range d.ctx.Runs {
		for idx := 0; idx < r.Step && idx < len(r.Events); idx++ {
			if r.Events[idx].Kind != model.Send {
				continue
			}
			if d.tryExisting(goal, goalNode, r, idx) {
				return true
			}
		}
	}
	return false
}

func (d *Driver) tryExisting(goal *binding.Binding, goalNode int, r *model.Run, idx int) bool {
	sendNode := depend.Node(r.GraphBase, idx)
	if sendNode == goalNode {
		return false
	}
	mark := d.trail.Mark()
	keylist := termlist.New()
	halted := false
	unify.SubtermUnify(r.Events[idx].Msg, goal.Term, d.trail, d.ctx.Switches.Match, keylist, func() bool {
		keys := append([]*term.Term{}, keylist.Items()...)
		if d.commitExisting(goal, r.ID, idx, sendNode, goalNode, keys) {
			halted = true
			return false
		}
		return true
	})
	d.trail.UndoTo(mark)
	return halted
}

func (d *Driver) commitExisting(goal *binding.Binding, runFrom, evFrom, sendNode, goalNode int, keys []*term.Term) bool {
	if !d.ctx.Graph.Push(sendNode, goalNode) {
		return false
	}
	added := d.addKeyGoals(goal, keys)
	goal.Satisfy(runFrom, evFrom)

	halted := d.iterate()

	goal.Open()
	d.removeGoals(added)
	d.ctx.Graph.Pop()
	return halted
}

// --- refinement 2: bind to a freshly instantiated regular run ---

// bindNewRun tries every (protocol, role, send-event) template: instantiate
// a new run up through that send, answering any Recv events skipped along
// the way with fresh open goals, and attempt to unify the send with goal
// (spec §4.M: "allocate a new run of some role, advance it to a send that
// could produce the needed message").
func (d *Driver) bindNewRun(goal *binding.Binding) bool {
	goalRun := d.ctx.Runs[goal.RunTo]
	goalNode := depend.Node(goalRun.GraphBase, goal.EvTo)

	for _, p := range d.ctx.Protocols {
		for _, role := range p.Roles {
			for j, tmplEv := range role.Events {
				if tmplEv.Kind != model.Send {
					continue
				}
				if d.tryNewRun(goal, goalNode, p, role, j) {
					return true
				}
			}
		}
	}
	return false
}

func (d *Driver) tryNewRun(goal *binding.Binding, goalNode int, p *model.Protocol, role *model.Role, j int) bool {
	id := len(d.ctx.Runs)
	run := InstantiateRun(id, p, role)
	run.Step = j + 1

	base := d.ctx.RunIndex.AddRun(len(run.Events))
	run.GraphBase = base
	d.ctx.Graph.Grow(len(run.Events))
	d.ctx.Runs = append(d.ctx.Runs, run)
	d.ctx.Metrics.ActiveRuns.Set(float64(len(d.ctx.Runs)))

	pushed := 0
	ok := true
	for i := 0; i+1 <= j; i++ {
		if d.ctx.Graph.Push(depend.Node(base, i), depend.Node(base, i+1)) {
			pushed++
		} else {
			ok = false
			break
		}
	}

	var recvGoals []*binding.Binding
	if ok {
		for i := 0; i < j; i++ {
			if run.Events[i].Kind == model.Recv {
				b := binding.New(run.Events[i].Msg, run.ID, i, term.EncryptionLevel(run.Events[i].Msg))
				d.ctx.Bindings.Add(b)
				recvGoals = append(recvGoals, b)
			}
		}
	}

	halted := false
	if ok {
		sendNode := depend.Node(base, j)
		mark := d.trail.Mark()
		keylist := termlist.New()
		unify.SubtermUnify(run.Events[j].Msg, goal.Term, d.trail, d.ctx.Switches.Match, keylist, func() bool {
			keys := append([]*term.Term{}, keylist.Items()...)
			if d.commitNewRun(goal, run, j, sendNode, goalNode, keys) {
				halted = true
				return false
			}
			return true
		})
		d.trail.UndoTo(mark)
	}

	d.removeGoals(recvGoals)
	for i := 0; i < pushed; i++ {
		d.ctx.Graph.Pop()
	}
	d.ctx.Graph.Shrink(len(run.Events))
	d.ctx.RunIndex.DropLastRun(len(run.Events))
	d.ctx.Runs = d.ctx.Runs[:len(d.ctx.Runs)-1]
	d.ctx.Metrics.ActiveRuns.Set(float64(len(d.ctx.Runs)))

	return halted
}

func (d *Driver) commitNewRun(goal *binding.Binding, run *model.Run, j, sendNode, goalNode int, keys []*term.Term) bool {
	if !d.ctx.Graph.Push(sendNode, goalNode) {
		return false
	}
	added := d.addKeyGoals(goal, keys)
	goal.Satisfy(run.ID, j)

	halted := d.iterate()

	goal.Open()
	d.removeGoals(added)
	d.ctx.Graph.Pop()
	return halted
}

// --- refinement 3: bind to an intruder construction ---

// bindIntruder tries every way the Dolev-Yao intruder itself could supply
// goal's term directly: it is already derivable from accumulated
// knowledge, it can be assembled by tupling/encrypting known parts, or
// (when it is an unbound variable) it can be instantiated to any basic
// term the intruder currently holds (spec §4.M refinement 3). It also
// tries revealing an agent's long-term key when the active LKR mode
// permits it (spec §4.J).
func (d *Driver) bindIntruder(goal *binding.Binding) bool {
	if d.ctx.Initial.InKnowledge(goal.Term) {
		if d.commitFromKnowledge(goal) {
			return true
		}
	}

	t := term.Devar(goal.Term)
	switch t.Kind {
	case term.Tuple, term.Encryption:
		if d.commitSynthesis(goal, t) {
			return true
		}
	case term.Variable:
		if d.tryClassChoice(goal, t) {
			return true
		}
	}

	if d.tryLKRReveal(goal, t) {
		return true
	}
	return d.tryStateReveal(goal, t)
}

func (d *Driver) commitFromKnowledge(goal *binding.Binding) bool {
	goal.Satisfy(-1, -1)
	goal.FromInitialKnowledge = true

	halted := d.iterate()

	goal.Open()
	return halted
}

func (d *Driver) commitSynthesis(goal *binding.Binding, t *term.Term) bool {
	sw := d.ctx.Switches
	if sw.MaxIntruderActions > 0 && d.ctx.IntruderActions() >= sw.MaxIntruderActions {
		return false
	}

	left := binding.New(t.Left, goal.RunTo, goal.EvTo, goal.Level)
	left.Synthetic = true
	right := binding.New(t.Right, goal.RunTo, goal.EvTo, goal.Level)
	right.Synthetic = true
	d.ctx.Bindings.Add(left)
	d.ctx.Bindings.Add(right)
	d.ctx.IncrIntruderActions()

	goal.Synthetic = true
	goal.Satisfy(-1, -1)

	halted := d.iterate()

	goal.Open()
	goal.Synthetic = false
	d.ctx.DecrIntruderActions()
	d.ctx.Bindings.Remove(right)
	d.ctx.Bindings.Remove(left)
	return halted
}

func (d *Driver) tryClassChoice(goal *binding.Binding, v *term.Term) bool {
	halted := false
	for _, candidate := range d.ctx.Initial.Basic() {
		mark := d.trail.Mark()
		unify.Unify(v, candidate, d.trail, d.ctx.Switches.Match, func() bool {
			goal.ClassChoice = true
			goal.Satisfy(-1, -1)
			goal.FromInitialKnowledge = true

			h := d.iterate()

			goal.Open()
			goal.ClassChoice = false
			if h {
				halted = true
				return false
			}
			return true
		})
		d.trail.UndoTo(mark)
		if halted {
			break
		}
	}
	return halted
}

// tryLKRReveal satisfies goal directly when its term (a variable or
// constant) unifies with an agent of the claim run's ρ whose long-term-key
// reveal the configured LKR mode permits against the claim run (spec
// §4.J), recording that agent in d.compromised for the rest of the branch.
// No key term is added to the intruder's knowledge: the reveal only
// satisfies goals that unify with the agent term itself.
func (d *Driver) tryLKRReveal(goal *binding.Binding, t *term.Term) bool {
	if t.Kind != term.Variable && t.Kind != term.Constant {
		return false
	}
	claimRun := d.ctx.Runs[d.claimRunID]
	roleNames := make([]string, 0, len(claimRun.Protocol.Roles))
	for _, r := range claimRun.Protocol.Roles {
		roleNames = append(roleNames, r.Name)
	}
	sort.Strings(roleNames)
	for _, roleName := range roleNames {
		agent, ok := claimRun.Rho[roleName]
		if !ok {
			continue
		}
		if !d.ctx.LKREnabled(d.claimRunID, agent, false) {
			continue
		}
		if alreadyRevealed(d.compromised, agent) {
			continue
		}
		mark := d.trail.Mark()
		halted := false
		unify.Unify(t, agent, d.trail, d.ctx.Switches.Match, func() bool {
			d.compromised = append(d.compromised, agent)
			goal.Satisfy(-1, -1)
			goal.FromInitialKnowledge = true

			h := d.iterate()

			goal.Open()
			d.compromised = d.compromised[:len(d.compromised)-1]
			if h {
				halted = true
				return false
			}
			return true
		})
		d.trail.UndoTo(mark)
		if halted {
			return true
		}
	}
	return false
}

// tryStateReveal lets the driver satisfy a goal directly from a run's
// session key (SKR) or role-local state (SSR), when the corresponding
// switch is enabled — Scyther's explicit reveal-session-key/
// reveal-state events, rendered here as a fourth bindIntruder choice
// rather than separate seeded events (spec §4.J; PruneClaim is the
// compromise-precondition lemma that later prunes branches where a
// partner run was compromised this way).
func (d *Driver) tryStateReveal(goal *binding.Binding, t *term.Term) bool {
	if t.Kind != term.Variable && t.Kind != term.Constant {
		return false
	}
	sw := d.ctx.Switches
	if !sw.SKR && !sw.SSR {
		return false
	}

	for _, run := range d.ctx.Runs {
		if run.IsIntruder || d.runCompromised(run.ID) {
			continue
		}

		var candidates []*term.Term
		if sw.SKR {
			candidates = append(candidates, instantiateTemplates(run, compromise.CollectSKR(run.Role, sw.SKRInfer))...)
		}
		if sw.SSR {
			candidates = append(candidates, instantiateTemplates(run, compromise.CollectSSR(run.Role, sw.SSRFilter))...)
		}

		if d.tryRevealRun(goal, t, run, candidates) {
			return true
		}
	}
	return false
}

func (d *Driver) tryRevealRun(goal *binding.Binding, t *term.Term, run *model.Run, candidates []*term.Term) bool {
	for _, cand := range candidates {
		mark := d.trail.Mark()
		halted := false
		unify.Unify(t, cand, d.trail, d.ctx.Switches.Match, func() bool {
			d.setRunCompromised(run.ID, true)
			goal.Satisfy(-1, -1)
			goal.FromInitialKnowledge = true

			h := d.iterate()

			goal.Open()
			d.setRunCompromised(run.ID, false)
			if h {
				halted = true
				return false
			}
			return true
		})
		d.trail.UndoTo(mark)
		if halted {
			return true
		}
	}
	return false
}

func (d *Driver) runCompromised(id int) bool { return d.compromisedRuns[id] }

func (d *Driver) setRunCompromised(id int, v bool) {
	if d.compromisedRuns == nil {
		d.compromisedRuns = make(map[int]bool)
	}
	if v {
		d.compromisedRuns[id] = true
	} else {
		delete(d.compromisedRuns, id)
	}
}

// instantiateTemplates rewrites role-scope template terms into run's
// concrete instance, the same way InstantiateRun does for event bodies.
func instantiateTemplates(run *model.Run, templates []*term.Term) []*term.Term {
	if len(templates) == 0 {
		return nil
	}
	inst := term.NewInstantiation(term.RoleScope, run.ID)
	out := make([]*term.Term, len(templates))
	for i, tmpl := range templates {
		out[i] = inst.Local(tmpl)
	}
	return out
}

func alreadyRevealed(compromised []*term.Term, agent *term.Term) bool {
	for _, c := range compromised {
		if term.Equal(c, agent) {
			return true
		}
	}
	return false
}

// --- shared helpers ---

func (d *Driver) addKeyGoals(goal *binding.Binding, keys []*term.Term) []*binding.Binding {
	if len(keys) == 0 {
		return nil
	}
	added := make([]*binding.Binding, 0, len(keys))
	for _, k := range keys {
		keyTerm := k.Right
		b := binding.New(keyTerm, goal.RunTo, goal.EvTo, term.EncryptionLevel(keyTerm))
		d.ctx.Bindings.Add(b)
		added = append(added, b)
	}
	return added
}

func (d *Driver) removeGoals(added []*binding.Binding) {
	for i := len(added) - 1; i >= 0; i-- {
		d.ctx.Bindings.Remove(added[i])
	}
}
