package claim

import (
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/term"
)

// containsSubterm reports whether sub occurs anywhere within big,
// structurally, by term.Equal at every node — unlike term.Occurs (which
// only asks whether a *variable* recurs), this asks whether an arbitrary
// subterm (e.g. a whole {Ni,I}pk(R) pattern) is present.
func containsSubterm(big, sub *term.Term) bool {
	if term.Equal(big, sub) {
		return true
	}
	switch big.Kind {
	case term.Tuple, term.Encryption:
		return containsSubterm(big.Left, sub) || containsSubterm(big.Right, sub)
	}
	return false
}

// DetectAlwaysTrue reports whether c's parameter term never occurs in any
// recv event across every role of every protocol, in a protocol that
// otherwise does receive messages — the "alwaystrue" condition (spec §8
// scenario 6, grounded in original_source/src/claim.c): a Secret/SKR
// claim on a term no recv pattern ever mentions can never be challenged
// by a receiving role, so it is vacuously true and the core short-
// circuits to Verified without running the search. A protocol with no
// recv events at all (e.g. a single broadcasting role) is a different,
// degenerate case and is not treated as alwaystrue here — nothing in
// such a protocol is ever "received" in the sense scenario 6 means.
func DetectAlwaysTrue(protocols []*model.Protocol, c *Claim) bool {
	if c.Kind != model.Secret && c.Kind != model.SKR {
		return false
	}
	if c.Param == nil {
		return false
	}
	sawRecv := false
	for _, p := range protocols {
		for _, r := range p.Roles {
			for _, ev := range r.Events {
				if ev.Kind != model.Recv {
					continue
				}
				sawRecv = true
				if containsSubterm(ev.Msg, c.Param) {
					return false
				}
			}
		}
	}
	return sawRecv
}
