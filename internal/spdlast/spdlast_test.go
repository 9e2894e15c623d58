package spdlast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dyverify/arachne/internal/model"
)

const sampleProtocol = `
const Alice, Bob : Agent;
const Ni, Nr : Nonce;
hashfunction pk;
inversekeyfunctions (pk, sk);

protocol ns3 {
	role I {
		var Ni : Nonce;
		send_1(I, R, {Ni, I}pk(R));
		recv_2(R, I, {Ni, Nr}pk(I));
		send_3(I, R, {Nr}pk(R));
		claim_i4(I, Secret, Ni);
	}
	role R {
		var Nr : Nonce;
		recv_1(I, R, {Ni, I}pk(R));
		send_2(R, I, {Ni, Nr}pk(I));
		recv_3(I, R, {Nr}pk(R));
		claim_r4(R, Secret, Nr);
	}
}
`

func TestParseBuildsProtocol(t *testing.T) {
	b, err := Parse(sampleProtocol)
	require.NoError(t, err)
	require.Len(t, b.Protocols, 1)

	proto := b.Protocols[0]
	require.Equal(t, "ns3", proto.Name)
	require.Len(t, proto.Roles, 2)

	initiator, ok := proto.RoleByName("I")
	require.True(t, ok)
	require.Len(t, initiator.Events, 4)
	require.Equal(t, model.Send, initiator.Events[0].Kind)
	require.Equal(t, model.Recv, initiator.Events[1].Kind)
	require.Equal(t, model.Send, initiator.Events[2].Kind)
	require.Equal(t, model.ClaimEvent, initiator.Events[3].Kind)
	require.Equal(t, model.Secret, initiator.Events[3].Claim)

	responder, ok := proto.RoleByName("R")
	require.True(t, ok)
	require.Len(t, responder.Events, 4)

	require.Len(t, b.Claims.All(), 2)
	c4i, ok := b.Claims.Get("claim_i4")
	require.True(t, ok)
	require.Equal(t, initiator, c4i.Role)
}

func TestParseRejectsDuplicateClaimLabel(t *testing.T) {
	_, err := Parse(`
protocol p {
	role A {
		claim_x(A, Secret);
		claim_x(A, Alive);
	}
}
`)
	require.Error(t, err)
}

func TestParseRejectsUndeclaredIdentifier(t *testing.T) {
	_, err := Parse(`
protocol p {
	role A {
		send_1(A, B, nope);
	}
}
`)
	require.Error(t, err)
}

func TestParseResolvesForwardRoleReference(t *testing.T) {
	// Role A's very first statement names role B before "role B {" has
	// been parsed — every two-party SPDL protocol does this for its
	// initiator's first send, so this must resolve rather than error.
	b, err := Parse(`
protocol p {
	role A {
		send_1(A, B, A);
	}
	role B {
		recv_1(A, B, A);
	}
}
`)
	require.NoError(t, err)
	require.Len(t, b.Protocols, 1)
	proto := b.Protocols[0]

	a, ok := proto.RoleByName("A")
	require.True(t, ok)
	require.Len(t, a.Events, 1)
	require.Equal(t, model.Send, a.Events[0].Kind)
}
