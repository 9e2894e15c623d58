package term

import (
	"testing"

	"github.com/dyverify/arachne/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevarIdempotent(t *testing.T) {
	tab := symtab.New()
	v := NewVariable(tab.Intern("x"), 0, false)
	c := NewConstant(tab.Intern("na"), 0)

	require.Equal(t, v, Devar(v), "unbound variable devars to itself")

	Bind(v, c)
	defer Unbind(v)

	assert.True(t, Equal(Devar(v), c))
	assert.Equal(t, Devar(v), Devar(Devar(v)), "devar must be idempotent")
}

func TestOccursCheck(t *testing.T) {
	tab := symtab.New()
	v := NewVariable(tab.Intern("x"), 0, false)
	a := NewConstant(tab.Intern("a"), 0)
	tup := NewTuple(v, a)

	assert.True(t, Occurs(v, tup))
	assert.False(t, Occurs(v, a))
}

func TestBindUnbindRoundTrip(t *testing.T) {
	tab := symtab.New()
	v := NewVariable(tab.Intern("x"), 0, false)
	c := NewConstant(tab.Intern("na"), 0)

	Bind(v, c)
	require.NotNil(t, v.Subst)
	Unbind(v)
	assert.Nil(t, v.Subst, "unbind(bind(v,t)) must restore identity")
}

func TestTupleNormalisesRightAssociative(t *testing.T) {
	tab := symtab.New()
	a := NewConstant(tab.Intern("a"), 0)
	b := NewConstant(tab.Intern("b"), 0)
	c := NewConstant(tab.Intern("c"), 0)

	left := NewTuple(NewTuple(a, b), c)
	require.Equal(t, Tuple, left.Kind)
	assert.NotEqual(t, Tuple, left.Left.Kind, "left operand must never be a tuple after normalisation")
	assert.True(t, Equal(left.Left, a))
	assert.True(t, Equal(left.Right, NewTuple(b, c)))
}

func TestEncryptionLevel(t *testing.T) {
	tab := symtab.New()
	na := NewConstant(tab.Intern("na"), 0)
	k := NewConstant(tab.Intern("k"), 0)
	kk := NewConstant(tab.Intern("kk"), 0)

	assert.Equal(t, 0, EncryptionLevel(na))

	enc1 := NewEncrypt(na, k, false)
	assert.Equal(t, 1, EncryptionLevel(enc1))

	enc2 := NewEncrypt(enc1, kk, false)
	assert.Equal(t, 2, EncryptionLevel(enc2))

	// A key itself nested in encryption contributes to the level too.
	nestedKey := NewEncrypt(na, NewEncrypt(k, kk, false), false)
	assert.Equal(t, 2, EncryptionLevel(nestedKey))
}

func TestTermLocalInstantiatesRoleScope(t *testing.T) {
	tab := symtab.New()
	nonceSym := tab.Intern("nb")
	agentSym := tab.Intern("B")

	nonce := NewVariable(nonceSym, RoleScope, true)
	agent := NewConstant(agentSym, RoleScope)
	msg := NewTuple(nonce, agent)

	inst := NewInstantiation(RoleScope, 3)
	localMsg := inst.Local(msg)

	require.Equal(t, 3, localMsg.Left.RunID)
	require.Equal(t, 3, localMsg.Right.RunID)
	assert.NotSame(t, msg, localMsg)

	// Two occurrences of the same role-local variable become the same
	// run-local term object.
	msg2 := NewTuple(nonce, nonce)
	localMsg2 := inst.Local(msg2)
	assert.Same(t, localMsg2.Left, localMsg2.Right)
}

func TestLeafEqualityByRunID(t *testing.T) {
	tab := symtab.New()
	sym := tab.Intern("A")
	a0 := NewConstant(sym, 0)
	a1 := NewConstant(sym, 1)
	assert.False(t, Equal(a0, a1), "same symbol at different run-ids are distinct leaves")
}
