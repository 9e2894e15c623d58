package verifier

import (
	"testing"

	"github.com/dyverify/arachne/internal/claim"
	"github.com/dyverify/arachne/internal/know"
	"github.com/dyverify/arachne/internal/model"
	"github.com/dyverify/arachne/internal/switches"
	"github.com/dyverify/arachne/internal/symtab"
	"github.com/dyverify/arachne/internal/vlog"
	"github.com/stretchr/testify/require"
)

func newTestContext(sw switches.Switches) *Context {
	tab := symtab.New()
	return New(sw, vlog.NewNop(), tab, nil, know.New(), claim.NewTable())
}

func TestPruneBoundsMaxRuns(t *testing.T) {
	sw := switches.Default()
	sw.MaxRuns = 1
	ctx := newTestContext(sw)
	ctx.Runs = []*model.Run{{ID: 0}, {ID: 1}}
	require.True(t, ctx.PruneBounds())
}

func TestPruneBoundsRespectsMaxAttacks(t *testing.T) {
	sw := switches.Default()
	sw.MaxAttacks = 1
	ctx := newTestContext(sw)
	ctx.RecordAttack()
	require.True(t, ctx.PruneBounds())
}

func TestPruneBoundsClean(t *testing.T) {
	ctx := newTestContext(switches.Default())
	require.False(t, ctx.PruneBounds())
}

func TestIntruderActionCounterRoundTrips(t *testing.T) {
	ctx := newTestContext(switches.Default())
	ctx.IncrIntruderActions()
	ctx.IncrIntruderActions()
	require.Equal(t, 2, ctx.IntruderActions())
	ctx.DecrIntruderActions()
	require.Equal(t, 1, ctx.IntruderActions())
}
