package heuristic

import (
	"math/rand"
	"testing"

	"github.com/dyverify/arachne/internal/binding"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/stretchr/testify/require"
)

func deterministicRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestSelectPicksLowestTermConstrainScore(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	y := term.NewVariable(tab.Intern("y"), 0, false)
	pairTerm := term.NewTuple(x, y)
	singleTerm := x

	bPair := binding.New(pairTerm, 0, 0, 0)
	bSingle := binding.New(singleTerm, 0, 1, 0)

	s := &Scorer{Mask: BitTermConstrain}
	all := []*binding.Binding{bPair, bSingle}
	got := s.Select(all)
	require.Same(t, bPair, got, "tuple of two open vars should score lower (1/3) than a lone var (1/2)")
}

func TestSelectIgnoresBlockedAndDone(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)

	bDone := binding.New(x, 0, 0, 0)
	bDone.Satisfy(1, 0)
	bBlocked := binding.New(x, 0, 1, 0)
	bBlocked.Blocked = true
	bOpen := binding.New(x, 0, 2, 0)

	s := &Scorer{Mask: Default}
	got := s.Select([]*binding.Binding{bDone, bBlocked, bOpen})
	require.Same(t, bOpen, got)
}

func TestSelectReturnsNilWhenNoneSelectable(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	b := binding.New(x, 0, 0, 0)
	b.Satisfy(1, 0)

	s := &Scorer{Mask: Default}
	require.Nil(t, s.Select([]*binding.Binding{b}))
}

func TestSingularVariableBonus(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	y := term.NewVariable(tab.Intern("y"), 0, false)
	tuple := term.NewTuple(x, y)

	s := &Scorer{Mask: BitSingularVar}
	require.Greater(t, s.Score(binding.New(x, 0, 0, 0), nil), s.Score(binding.New(tuple, 0, 1, 0), nil))
}

func TestKeyLevelEscalationScoresDeeperEncryptionHigher(t *testing.T) {
	tab := symtab.New()
	k := tab.Intern("k")
	m := term.NewConstant(tab.Intern("m"), 0)
	key := term.NewConstant(k, 0)
	enc := term.NewEncrypt(m, key, false)
	tab.MarkKeyUse(k)

	s := &Scorer{Mask: BitKeyLevel}
	require.Greater(t, s.Score(binding.New(enc, 0, 0, 0), nil), s.Score(binding.New(m, 0, 1, 0), nil))
}

func TestRandomSelectorOnlyReturnsSelectable(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	bDone := binding.New(x, 0, 0, 0)
	bDone.Satisfy(1, 0)
	bOpen := binding.New(x, 0, 1, 0)

	s := &Scorer{Mask: Default, Rand: deterministicRand()}
	got := s.Select([]*binding.Binding{bDone, bOpen})
	require.Same(t, bOpen, got)
}
