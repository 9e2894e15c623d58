// Package heuristic scores outstanding bindings to pick the next open
// goal for the Arachne driver to refine (component K).
package heuristic

import (
	"math/rand"

	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/hidelevel"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
)

// Mask selects which sub-scores contribute to a binding's score.
type Mask uint8

const (
	BitTermConstrain Mask = 1 << iota // 0: higher for terms with fewer open variables
	BitLevel                          // 1: adds the binding's encryption level, so lower-level goals (e.g. atomic keys) are selected first
	BitConsequence                    // 2: how many other open bindings share a variable
	BitSingularVar                    // 3: the whole term is a single open variable
	BitOpenNonces                     // 4: count of open Nonce-sorted variables (Athena-style)
	BitHideLevel                      // 5: weight from the hide-level lemma
	BitKeyLevel                       // 6: key-use-level escalation
)

// Default is "the sum of bits 0, 1, and 5" (spec §4.K).
const Default = BitTermConstrain | BitLevel | BitHideLevel

// Scorer computes a binding's selection score under a fixed Mask.
type Scorer struct {
	Mask Mask
	Hide *hidelevel.Table // may be nil; BitHideLevel contributes 0 then
	Rand *rand.Rand       // non-nil enables the uniform-random selector
}

func countOpenVars(t *term.Term) int {
	t = term.Devar(t)
	switch t.Kind {
	case term.Variable:
		return 1
	case term.Constant:
		return 0
	case term.Tuple, term.Encryption:
		return countOpenVars(t.Left) + countOpenVars(t.Right)
	}
	return 0
}

func isSingularVariable(t *term.Term) bool {
	return term.Devar(t).Kind == term.Variable
}

func countSort(t *term.Term, sort symtab.Sort) int {
	t = term.Devar(t)
	switch t.Kind {
	case term.Variable:
		for _, s := range t.Sorts {
			if s == sort {
				return 1
			}
		}
		return 0
	case term.Tuple, term.Encryption:
		return countSort(t.Left, sort) + countSort(t.Right, sort)
	}
	return 0
}

func keyUseEscalation(t *term.Term) float64 {
	t = term.Devar(t)
	switch t.Kind {
	case term.Constant, term.Variable:
		if t.Sym == nil {
			return 0
		}
		return float64(t.Sym.KeyUseLevel())
	case term.Tuple:
		a, b := keyUseEscalation(t.Left), keyUseEscalation(t.Right)
		if a > b {
			return a
		}
		return b
	case term.Encryption:
		return keyUseEscalation(t.Right) + 1
	}
	return 0
}

func hideWeight(h *hidelevel.Table, t *term.Term) float64 {
	if h == nil {
		return 0
	}
	t = term.Devar(t)
	if term.IsLeaf(t) {
		switch h.LevelOf(t) {
		case hidelevel.Impossible:
			return -1000 // never actually selected; pruneTheorems should have caught it first
		case hidelevel.ByKnowledgeOnly, hidelevel.ByProtocolOnly:
			return 1
		case hidelevel.Both:
			return 2
		}
	}
	return 0
}

func sharesVariable(a, b *term.Term) bool {
	seen := make(map[*symtab.Symbol]bool)
	collectVarSyms(a, seen)
	return anyVarSymIn(b, seen)
}

func collectVarSyms(t *term.Term, into map[*symtab.Symbol]bool) {
	t = term.Devar(t)
	switch t.Kind {
	case term.Variable:
		into[t.Sym] = true
	case term.Tuple, term.Encryption:
		collectVarSyms(t.Left, into)
		collectVarSyms(t.Right, into)
	}
}

func anyVarSymIn(t *term.Term, set map[*symtab.Symbol]bool) bool {
	t = term.Devar(t)
	switch t.Kind {
	case term.Variable:
		return set[t.Sym]
	case term.Tuple, term.Encryption:
		return anyVarSymIn(t.Left, set) || anyVarSymIn(t.Right, set)
	}
	return false
}

func consequenceCount(b *binding.Binding, all []*binding.Binding) int {
	n := 0
	for _, other := range all {
		if other == b || !other.Selectable() {
			continue
		}
		if sharesVariable(b.Term, other.Term) {
			n++
		}
	}
	return n
}

// Score computes b's weighted sub-score sum under the active mask.
func (s *Scorer) Score(b *binding.Binding, all []*binding.Binding) float64 {
	var score float64
	if s.Mask&BitTermConstrain != 0 {
		score += 1.0 / float64(1+countOpenVars(b.Term))
	}
	if s.Mask&BitLevel != 0 {
		score += float64(b.Level)
	}
	if s.Mask&BitConsequence != 0 {
		score += float64(consequenceCount(b, all))
	}
	if s.Mask&BitSingularVar != 0 && isSingularVariable(b.Term) {
		score += 1
	}
	if s.Mask&BitOpenNonces != 0 {
		score += float64(countSort(b.Term, symtab.Sort("Nonce")))
	}
	if s.Mask&BitHideLevel != 0 {
		score += hideWeight(s.Hide, b.Term)
	}
	if s.Mask&BitKeyLevel != 0 {
		score += keyUseEscalation(b.Term)
	}
	return score
}

// Select returns the lowest-score selectable binding, ties broken by
// oldest (lowest list-position) binding first — deterministic given
// input (spec §5). If s.Rand is non-nil, a uniformly random selectable
// binding is returned instead (spec §4.K: "a special selector value picks
// uniformly at random").
func (s *Scorer) Select(all []*binding.Binding) *binding.Binding {
	var selectable []*binding.Binding
	for _, b := range all {
		if b.Selectable() {
			selectable = append(selectable, b)
		}
	}
	if len(selectable) == 0 {
		return nil
	}
	if s.Rand != nil {
		return selectable[s.Rand.Intn(len(selectable))]
	}
	best := selectable[0]
	bestScore := s.Score(best, all)
	for _, b := range selectable[1:] {
		sc := s.Score(b, all)
		if sc < bestScore {
			best, bestScore = b, sc
		}
	}
	return best
}
