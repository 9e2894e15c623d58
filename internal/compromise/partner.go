package compromise

import (
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/depend"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
)

// PartnerDef selects how the claim run's partner runs are determined
// (spec §4.J's six numbered choices, grounded on original_source's
// partner.c getPartnerArray switch).
type PartnerDef uint8

const (
	PartnerOverlap           PartnerDef = iota // 0: trace-overlap propagation
	PartnerMatchingHistories                   // 1: default; mlist-based when the protocol is role-symmetric
	PartnerSID                                 // 2: equal explicit SID claim
	PartnerMList                               // 3: matching exchanged-message lists
	PartnerCrypto                               // 4: crypto-style partitioning (same rule as 1)
	PartnerCK2001                               // 5: SID + equal rho set
)

func precedes(graph *depend.Graph, r1 *model.Run, e1 int, r2 *model.Run, e2 int) bool {
	if graph == nil || e1 < 0 || e2 < 0 {
		return false
	}
	return graph.Precedes(depend.Node(r1.GraphBase, e1), depend.Node(r2.GraphBase, e2))
}

// ComputePartners returns, per run index, whether that run counts as a
// partner of claimRun for the given definition.
func ComputePartners(def PartnerDef, claimRun *model.Run, c *claim.Claim, allRuns []*model.Run, graph *depend.Graph) []bool {
	switch def {
	case PartnerOverlap:
		return propagateOverlap(claimRun, allRuns, graph)
	case PartnerSID:
		return matchingSIDs(claimRun, allRuns)
	case PartnerMList:
		return matchingMList(claimRun, c, allRuns)
	case PartnerCK2001:
		return matchingCK2001(claimRun, allRuns)
	default: // PartnerMatchingHistories, PartnerCrypto
		if claimRun.Protocol.Symmetric {
			return matchingMList(claimRun, c, allRuns)
		}
		return matchingHistories(claimRun, c, allRuns)
	}
}

// ApplyPartners writes the computed partner flags onto the runs
// themselves, as original_source's getPartnerArray does for sys->runs.
func ApplyPartners(partners []bool, allRuns []*model.Run) {
	for _, r := range allRuns {
		if r.ID < len(partners) {
			r.Partner = partners[r.ID]
		}
	}
}

// --- variant 0: trace-overlap propagation ---

func propagateOverlap(claimRun *model.Run, allRuns []*model.Run, graph *depend.Graph) []bool {
	partners := make([]bool, len(allRuns))
	partners[claimRun.ID] = true
	proceed := true
	for proceed {
		proceed = false
		for _, ri := range allRuns {
			if ri.IsIntruder || partners[ri.ID] {
				continue
			}
			beforeAny, afterAny := false, false
			for _, rj := range allRuns {
				if !partners[rj.ID] {
					continue
				}
				if precedes(graph, ri, 0, rj, rj.Step-1) {
					beforeAny = true
				}
				if precedes(graph, rj, 0, ri, ri.Step-1) {
					afterAny = true
				}
			}
			if beforeAny && afterAny {
				partners[ri.ID] = true
				proceed = true
			}
		}
	}
	return partners
}

// --- variant 1: matching histories ---

func labelRoles(p *model.Protocol, label string) (sendRole, readRole string, ok bool) {
	var hasSend, hasRead bool
	for _, r := range p.Roles {
		for _, ev := range r.Events {
			if ev.Label != label {
				continue
			}
			if ev.Kind == model.Send {
				sendRole, hasSend = r.Name, true
			}
			if ev.Kind == model.Recv {
				readRole, hasRead = r.Name, true
			}
		}
	}
	return sendRole, readRole, hasSend && hasRead
}

func findEvent(run *model.Run, label string, kind model.EventKind) (*model.Event, bool) {
	for i := 0; i < run.Step && i < len(run.Events); i++ {
		if run.Events[i].Label == label && run.Events[i].Kind == kind {
			return &run.Events[i], true
		}
	}
	return nil, false
}

func eventsMatch(a, b *model.Event) bool {
	return term.Equal(a.Msg, b.Msg) && term.Equal(a.From, b.From) && term.Equal(a.To, b.To) && a.Label == b.Label
}

func historiesMatch(c *claim.Claim, protocol *model.Protocol, mapping map[string]int, allRuns []*model.Run) bool {
	for _, lbl := range c.Precedence {
		sendRole, readRole, ok := labelRoles(protocol, lbl)
		if !ok {
			continue
		}
		sendRunID, hasSend := mapping[sendRole]
		readRunID, hasRead := mapping[readRole]
		if !hasSend || !hasRead {
			continue
		}
		sendEv, foundS := findEvent(allRuns[sendRunID], lbl, model.Send)
		readEv, foundR := findEvent(allRuns[readRunID], lbl, model.Recv)
		if !foundS || !foundR {
			return false
		}
		if !eventsMatch(sendEv, readEv) {
			return false
		}
	}
	return true
}

// matchingHistories marks every run true in every role-assignment for
// which the claim's precedence-labelled sends and receives match
// (original_source's matchingHistories/iterateInvolvedRuns): "mark
// everybody as true with the same history."
func matchingHistories(claimRun *model.Run, c *claim.Claim, allRuns []*model.Run) []bool {
	partners := make([]bool, len(allRuns))
	partners[claimRun.ID] = true

	roleNames := make([]string, 0, len(claimRun.Protocol.Roles))
	for _, r := range claimRun.Protocol.Roles {
		roleNames = append(roleNames, r.Name)
	}

	mapping := make(map[string]int, len(roleNames))
	var assign func(i int)
	assign = func(i int) {
		if i == len(roleNames) {
			if historiesMatch(c, claimRun.Protocol, mapping, allRuns) {
				for _, runID := range mapping {
					partners[runID] = true
				}
			}
			return
		}
		role := roleNames[i]
		if role == claimRun.Role.Name {
			mapping[role] = claimRun.ID
			assign(i + 1)
			delete(mapping, role)
			return
		}
		for _, r := range allRuns {
			if r.IsIntruder || r.Protocol != claimRun.Protocol || r.Role.Name != role {
				continue
			}
			mapping[role] = r.ID
			assign(i + 1)
		}
		delete(mapping, role)
	}
	assign(0)
	return partners
}

// --- variant 2: matching SIDs ---

func getSID(run *model.Run) (*term.Term, bool) {
	for i := 0; i < run.Step && i < len(run.Events); i++ {
		ev := run.Events[i]
		if ev.Kind == model.ClaimEvent && ev.Claim == model.SID {
			return ev.ClaimParam, true
		}
	}
	return nil, false
}

func matchingSIDs(claimRun *model.Run, allRuns []*model.Run) []bool {
	partners := make([]bool, len(allRuns))
	partners[claimRun.ID] = true
	sid, ok := getSID(claimRun)
	if !ok {
		return partners
	}
	for _, r := range allRuns {
		if r.IsIntruder || r.ID == claimRun.ID {
			continue
		}
		if xsid, ok2 := getSID(r); ok2 && term.Equal(sid, xsid) {
			partners[r.ID] = true
		}
	}
	return partners
}

// --- variant 3 (and 1/4 for symmetric protocols): matching message lists ---

func getMList(run *model.Run, kind model.EventKind, precLabels map[string]bool) []*term.Term {
	var list []*term.Term
	first := true
	for i := 0; i < run.Step && i < len(run.Events); i++ {
		ev := run.Events[i]
		if ev.Kind != kind || !precLabels[ev.Label] {
			continue
		}
		if first {
			list = append(list, ev.From, ev.To)
			first = false
		}
		list = append(list, ev.Msg)
	}
	return list
}

func prefixMatch(a, b []*term.Term) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !term.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func matchingMList(claimRun *model.Run, c *claim.Claim, allRuns []*model.Run) []bool {
	precLabels := make(map[string]bool, len(c.Precedence))
	for _, l := range c.Precedence {
		precLabels[l] = true
	}
	sendList := getMList(claimRun, model.Send, precLabels)
	recvList := getMList(claimRun, model.Recv, precLabels)

	partners := make([]bool, len(allRuns))
	partners[claimRun.ID] = true
	for _, r := range allRuns {
		if r.IsIntruder || r.ID == claimRun.ID || r.Protocol != claimRun.Protocol {
			continue
		}
		sent := getMList(r, model.Send, precLabels)
		received := getMList(r, model.Recv, precLabels)
		if prefixMatch(recvList, sent) && prefixMatch(sendList, received) {
			partners[r.ID] = true
		}
	}
	return partners
}

// --- variant 5: SID + equal rho set (CK2001) ---

func rhoValuesEqual(a, b map[string]*term.Term) bool {
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

func matchingCK2001(claimRun *model.Run, allRuns []*model.Run) []bool {
	partners := make([]bool, len(allRuns))
	partners[claimRun.ID] = true
	sid, ok := getSID(claimRun)
	if !ok {
		return partners
	}
	for _, r := range allRuns {
		if r.IsIntruder || r.ID == claimRun.ID {
			continue
		}
		xsid, ok2 := getSID(r)
		if !ok2 || !term.Equal(sid, xsid) {
			continue
		}
		if rhoValuesEqual(claimRun.Rho, r.Rho) {
			partners[r.ID] = true
		}
	}
	return partners
}
