// Package integration exercises the full pipeline — surface syntax to
// verdict — against the documented scenario fixtures under testdata/
// (spec §8). Only the alwaystrue scenario gets a hard verdict
// assertion here: it is a static property of the parsed model, decided
// before the Arachne search ever runs, so its outcome does not depend
// on tracing the search by hand. The remaining fixtures are exercised
// only as parser-level smoke tests; see DESIGN.md for why their search
// verdicts aren't asserted.
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dyverify/arachne/internal/arachne"
	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/report"
	"github.com/dyverify/arachne/internal/spdlast"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/verifier"
	"github.com/dyverify/arachne/internal/vlog"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return string(src)
}

func TestAlwaysTrueClaimVerifiesWithoutSearch(t *testing.T) {
	b, err := spdlast.Parse(readFixture(t, "alwaystrue_secret.spdl"))
	require.NoError(t, err)

	c, ok := b.Claims.Get("claim_c1")
	require.True(t, ok)

	log := vlog.NewStderr(vlog.LevelWarn)
	ctx := verifier.New(switches.Default(), log, b.Symbols, b.Protocols, b.Initial.Clone(), b.Claims)
	collector := report.NewCollector()

	result := arachne.New(ctx, c, collector).Run()

	require.Equal(t, claim.Verified, result.Verdict)
	require.True(t, result.AlwaysTrue)
	require.Equal(t, 0, ctx.StatesVisited(), "a statically-true claim must never enter the search loop")
}

// parseFixtureScenarios confirms every documented end-to-end scenario
// (spec §8) at least parses into the builder shape its prose describes.
// Their Arachne verdicts are not asserted here — see DESIGN.md.
func TestDocumentedScenariosParse(t *testing.T) {
	cases := []struct {
		file     string
		protocol string
		roles    []string
		claims   []string
	}{
		{"ns_public_key.spdl", "ns3", []string{"I", "R"}, []string{"claim_i1", "claim_i2", "claim_r1", "claim_r2"}},
		{"ns_lowe.spdl", "nsl3", []string{"I", "R"}, []string{"claim_i1", "claim_i2", "claim_r1", "claim_r2"}},
		{"tls_paulson.spdl", "tls", []string{"C", "S"}, []string{"claim_c1", "claim_s1"}},
		{"wpa_4way.spdl", "wpa4way", []string{"X", "Y"}, []string{"claim_x1", "claim_y1"}},
		{"naxos_ake.spdl", "naxos", []string{"I", "R"}, []string{"claim_i1", "claim_i2", "claim_r1", "claim_r2"}},
	}

	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			b, err := spdlast.Parse(readFixture(t, tc.file))
			require.NoError(t, err)
			require.Len(t, b.Protocols, 1)
			require.Equal(t, tc.protocol, b.Protocols[0].Name)

			for _, roleName := range tc.roles {
				_, ok := b.Protocols[0].RoleByName(roleName)
				require.True(t, ok, "role %s", roleName)
			}
			for _, label := range tc.claims {
				_, ok := b.Claims.Get(label)
				require.True(t, ok, "claim %s", label)
			}
		})
	}
}
