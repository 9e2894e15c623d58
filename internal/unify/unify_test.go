package unify

import (
	"testing"

	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/dyverify/arachne/internal/termlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifyVariableWithConstant(t *testing.T) {
	tab := symtab.New()
	v := term.NewVariable(tab.Intern("x"), 0, false)
	c := term.NewConstant(tab.Intern("na"), 0)

	tr := NewTrail()
	calls := 0
	cont := Unify(v, c, tr, Strict, func() bool {
		calls++
		assert.True(t, term.Equal(v, c))
		return true
	})
	assert.True(t, cont)
	assert.Equal(t, 1, calls)
	assert.Nil(t, v.Subst, "trail must undo after kont returns")
}

func TestUnifyOccursCheckFails(t *testing.T) {
	tab := symtab.New()
	v := term.NewVariable(tab.Intern("x"), 0, false)
	tup := term.NewTuple(v, term.NewConstant(tab.Intern("a"), 0))

	tr := NewTrail()
	calls := 0
	Unify(v, tup, tr, Strict, func() bool { calls++; return true })
	assert.Equal(t, 0, calls, "occurs check must reject v = (v,a)")
}

func TestUnifyTuplesComponentwise(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	y := term.NewVariable(tab.Intern("y"), 0, false)
	a := term.NewConstant(tab.Intern("a"), 0)
	b := term.NewConstant(tab.Intern("b"), 0)

	left := term.NewTuple(x, y)
	right := term.NewTuple(a, b)

	tr := NewTrail()
	calls := 0
	Unify(left, right, tr, Strict, func() bool {
		calls++
		assert.True(t, term.Equal(x, a))
		assert.True(t, term.Equal(y, b))
		return true
	})
	assert.Equal(t, 1, calls)
}

func TestUnifyEncryptionUnifiesKeyThenPlaintext(t *testing.T) {
	tab := symtab.New()
	na := term.NewConstant(tab.Intern("na"), 0)
	k := term.NewConstant(tab.Intern("k"), 0)
	kv := term.NewVariable(tab.Intern("kv"), 0, false)
	nv := term.NewVariable(tab.Intern("nv"), 0, false)

	enc1 := term.NewEncrypt(nv, k, false)
	enc2 := term.NewEncrypt(na, kv, false)

	tr := NewTrail()
	calls := 0
	Unify(enc1, enc2, tr, Strict, func() bool {
		calls++
		assert.True(t, term.Equal(kv, k))
		assert.True(t, term.Equal(nv, na))
		return true
	})
	assert.Equal(t, 1, calls)
}

func TestUnifyFunctionAgentHardClash(t *testing.T) {
	tab := symtab.New()
	v := term.NewVariable(tab.Intern("f"), 0, false, "Function")
	c := term.NewConstant(tab.Intern("A"), 0, "Agent")

	for _, mode := range []Mode{Strict, BasicTypeFlaw, AnyTypeFlaw} {
		tr := NewTrail()
		calls := 0
		Unify(v, c, tr, mode, func() bool { calls++; return true })
		assert.Equal(t, 0, calls, "Function/Agent clash must hold in mode %d", mode)
	}
}

func TestUnifyStrictModeRejectsSortMismatch(t *testing.T) {
	tab := symtab.New()
	v := term.NewVariable(tab.Intern("n"), 0, false, "Nonce")
	c := term.NewConstant(tab.Intern("A"), 0, "Agent")

	tr := NewTrail()
	calls := 0
	Unify(v, c, tr, Strict, func() bool { calls++; return true })
	assert.Equal(t, 0, calls, "strict mode requires intersecting sorts")

	calls = 0
	Unify(v, c, tr, BasicTypeFlaw, func() bool { calls++; return true })
	assert.Equal(t, 1, calls, "basic type-flaw mode allows the cross-sort bind")
}

func TestSubtermUnifyAccumulatesKeylistOutermostFirst(t *testing.T) {
	tab := symtab.New()
	na := term.NewConstant(tab.Intern("na"), 0)
	k1 := term.NewConstant(tab.Intern("k1"), 0)
	k2 := term.NewConstant(tab.Intern("k2"), 0)

	// {{na}k1}k2 — na is nested two encryptions deep.
	big := term.NewEncrypt(term.NewEncrypt(na, k1, false), k2, false)

	tr := NewTrail()
	kl := termlist.New()
	var seenOrders [][]*term.Term
	SubtermUnify(big, na, tr, Strict, kl, func() bool {
		cp := append([]*term.Term{}, kl.Items()...)
		seenOrders = append(seenOrders, cp)
		return true
	})

	require.Len(t, seenOrders, 1)
	require.Len(t, seenOrders[0], 2)
	assert.True(t, term.Equal(seenOrders[0][0], big), "outermost key first")
	assert.True(t, term.Equal(seenOrders[0][1], term.NewEncrypt(na, k1, false)))
	assert.Equal(t, 0, kl.Len(), "keylist must be fully popped after the call returns")
}

func TestUnifyKontFalseStopsSearch(t *testing.T) {
	tab := symtab.New()
	x := term.NewVariable(tab.Intern("x"), 0, false)
	y := term.NewVariable(tab.Intern("y"), 0, false)
	a := term.NewConstant(tab.Intern("a"), 0)
	b := term.NewConstant(tab.Intern("b"), 0)

	tr := NewTrail()
	cont := Unify(term.NewTuple(x, y), term.NewTuple(a, b), tr, Strict, func() bool {
		return false
	})
	assert.False(t, cont, "a false Kont must propagate back out of Unify")
}
