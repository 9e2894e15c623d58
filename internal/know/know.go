// Package know implements the intruder-knowledge set: basic / composite /
// inverse-key sub-indices with saturating insertion (component D).
package know

import "github.com/dyverify/arachne/internal/term"

// Set is the Dolev-Yao intruder's accumulated knowledge.
type Set struct {
	basic     []*term.Term // leaves: constants and (bound) variables the intruder holds
	composite []*term.Term // tuples and encryptions held as opaque terms

	invKeys []invPair // declared inverse-key / inverse-function pairs
}

type invPair struct {
	a, b *term.Term
}

// New returns an empty knowledge set.
func New() *Set {
	return &Set{}
}

// DeclareInverse records that k1 and k2 are inverse keys (symmetric keys
// are typically self-inverse: callers pass k, k). Also used for
// inversekeyfunctions(f, f⁻¹) pairs, spec §6.
func (s *Set) DeclareInverse(k1, k2 *term.Term) {
	s.invKeys = append(s.invKeys, invPair{k1, k2})
}

// Inverse returns k's declared counterpart, or ok=false ("hidden", spec
// §3: "the inverse of k, or 'hidden' if none"). A keyed-function
// application fn(arg) (e.g. pk(R)) falls back to the declared inverse of
// the bare function head: if inversekeyfunctions(pk, sk) registered pk/sk
// as a pair, Inverse(pk(R)) yields sk(R) for any R, not just a literally
// pre-declared pair (spec §6 `inversekeyfunctions`).
func (s *Set) Inverse(k *term.Term) (*term.Term, bool) {
	k = term.Devar(k)
	for _, p := range s.invKeys {
		if term.Equal(p.a, k) {
			return p.b, true
		}
		if term.Equal(p.b, k) {
			return p.a, true
		}
	}
	if k.Kind == term.Encryption && k.IsFunction {
		head := term.Devar(k.Right)
		for _, p := range s.invKeys {
			if term.Equal(p.a, head) {
				return term.NewEncrypt(k.Left, p.b, true), true
			}
			if term.Equal(p.b, head) {
				return term.NewEncrypt(k.Left, p.a, true), true
			}
		}
	}
	return nil, false
}

func (s *Set) containsBasic(t *term.Term) bool {
	for _, b := range s.basic {
		if term.Equal(b, t) {
			return true
		}
	}
	return false
}

func (s *Set) containsComposite(t *term.Term) bool {
	for _, c := range s.composite {
		if term.Equal(c, t) {
			return true
		}
	}
	return false
}

// Add inserts t into the knowledge set with saturation: a tuple is split
// into its components; an encryption is decomposed into its plaintext if
// its inverse key is derivable (spec §3: Knowledge.insertion).
func (s *Set) Add(t *term.Term) {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		if !s.containsBasic(t) {
			s.basic = append(s.basic, t)
			s.saturate()
		}
	case term.Tuple:
		s.Add(t.Left)
		s.Add(t.Right)
	case term.Encryption:
		if !s.containsComposite(t) {
			s.composite = append(s.composite, t)
		}
		s.saturate()
	}
}

// saturate repeatedly decomposes any composite encryption whose inverse
// key is now derivable, until a fixpoint is reached.
func (s *Set) saturate() {
	for {
		changed := false
		for _, c := range s.composite {
			if c.Kind != term.Encryption || c.IsFunction {
				continue // keyed-function applications are never decryptable
			}
			inv, ok := s.Inverse(c.Right)
			if !ok {
				continue
			}
			if s.InKnowledge(inv) && !s.inKnowledgeBasicOrComposite(c.Left) {
				s.addDirect(c.Left)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// addDirect adds t without re-entering saturate recursively mid-scan;
// callers of addDirect are themselves inside the saturate loop, which will
// re-scan on the next outer iteration.
func (s *Set) addDirect(t *term.Term) {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		if !s.containsBasic(t) {
			s.basic = append(s.basic, t)
		}
	case term.Tuple:
		s.addDirect(t.Left)
		s.addDirect(t.Right)
	case term.Encryption:
		if !s.containsComposite(t) {
			s.composite = append(s.composite, t)
		}
	}
}

func (s *Set) inKnowledgeBasicOrComposite(t *term.Term) bool {
	t = term.Devar(t)
	if term.IsLeaf(t) {
		return s.containsBasic(t)
	}
	return s.containsComposite(t)
}

// InKnowledge reports whether t is derivable under closure: it is a known
// leaf, a tuple of two derivable terms, a known ciphertext, or an
// encryption the intruder can itself construct from a derivable plaintext
// and key (spec §3: "in_knowledge(t) — membership under closure").
func (s *Set) InKnowledge(t *term.Term) bool {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		return s.containsBasic(t)
	case term.Tuple:
		return s.InKnowledge(t.Left) && s.InKnowledge(t.Right)
	case term.Encryption:
		if s.containsComposite(t) {
			return true
		}
		return s.InKnowledge(t.Left) && s.InKnowledge(t.Right)
	}
	return false
}

// Basic returns the basic (leaf) terms currently known, for heuristics and
// reporting.
func (s *Set) Basic() []*term.Term {
	out := make([]*term.Term, len(s.basic))
	copy(out, s.basic)
	return out
}

// Clone returns an independent copy, used when a run's initial knowledge
// needs to be forked before the search mutates it.
func (s *Set) Clone() *Set {
	cp := &Set{
		basic:     append([]*term.Term{}, s.basic...),
		composite: append([]*term.Term{}, s.composite...),
		invKeys:   append([]invPair{}, s.invKeys...),
	}
	return cp
}
