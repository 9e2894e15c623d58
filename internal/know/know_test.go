package know

import (
	"testing"

	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/term"
	"github.com/stretchr/testify/require"
)

func TestInverseGeneralizesOverKeyedFunctionArgument(t *testing.T) {
	tab := symtab.New()
	pk := term.NewConstant(tab.Intern("pk"), term.Global, "Function")
	sk := term.NewConstant(tab.Intern("sk"), term.Global, "Function")

	s := New()
	s.DeclareInverse(pk, sk)

	alice := term.NewConstant(tab.Intern("Alice"), 0, symtab.Sort("Agent"))
	pkAlice := term.NewEncrypt(alice, pk, true)

	inv, ok := s.Inverse(pkAlice)
	require.True(t, ok)
	require.True(t, term.Equal(inv, term.NewEncrypt(alice, sk, true)))
}

func TestInverseStillMatchesDirectlyRegisteredPair(t *testing.T) {
	tab := symtab.New()
	k := term.NewConstant(tab.Intern("kAB"), 0, symtab.Sort("SessionKey"))

	s := New()
	s.DeclareInverse(k, k)

	inv, ok := s.Inverse(k)
	require.True(t, ok)
	require.True(t, term.Equal(inv, k))
}

func TestAddDecomposesEncryptionUnderKeyedFunctionInverse(t *testing.T) {
	tab := symtab.New()
	pk := term.NewConstant(tab.Intern("pk"), term.Global, "Function")
	sk := term.NewConstant(tab.Intern("sk"), term.Global, "Function")

	s := New()
	s.DeclareInverse(pk, sk)

	bob := term.NewConstant(tab.Intern("Bob"), 0, symtab.Sort("Agent"))
	secret := term.NewConstant(tab.Intern("Ni"), 0, symtab.Sort("Nonce"))
	cipher := term.NewEncrypt(secret, term.NewEncrypt(bob, pk, true), false)

	s.Add(cipher)
	require.False(t, s.InKnowledge(secret), "without sk(Bob) the plaintext must stay hidden")

	s.Add(term.NewEncrypt(bob, sk, true))
	require.True(t, s.InKnowledge(secret), "once sk(Bob) is known the ciphertext must decompose")
}
