package launchpad

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
)

func TestPingLaunch_AdvancesHeartbeat(t *testing.T) {
	lp, clock := newTestPad(t)
	ids := linearChain(t, lp)
	launch := mustCheckout(t, lp, ids[0])

	clock.Advance(10 * time.Minute)
	require.NoError(t, lp.PingLaunch(context.Background(), launch.ID))

	got, err := lp.GetLaunch(context.Background(), launch.ID)
	require.NoError(t, err)
	assert.True(t, got.LastPing.After(launch.LastPing))
}

func TestPingLaunch_RejectsFinishedLaunch(t *testing.T) {
	lp, _ := newTestPad(t)
	ids := linearChain(t, lp)
	launch := mustCheckout(t, lp, ids[0])
	require.NoError(t, lp.CompleteLaunch(context.Background(), launch.ID, nil, model.StateCompleted))

	assert.Error(t, lp.PingLaunch(context.Background(), launch.ID))
}

func TestDetectLostRuns_ReclaimsStaleFirework(t *testing.T) {
	lp, clock := newTestPad(t, WithLostRunThreshold(time.Hour))
	ids := linearChain(t, lp)
	launch := mustCheckout(t, lp, ids[0])

	clock.Advance(2 * time.Hour)

	reclaimed, err := lp.DetectLostRuns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, reclaimed)

	mustState(t, lp, ids[0], model.StateReady)
	got, err := lp.GetLaunch(context.Background(), launch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateFizzled, got.State)

	// The reclaimed firework can be claimed again with a fresh launch.
	second := mustCheckout(t, lp, ids[0])
	assert.NotEqual(t, launch.ID, second.ID)
}

func TestDetectLostRuns_FreshHeartbeatUntouched(t *testing.T) {
	lp, clock := newTestPad(t, WithLostRunThreshold(time.Hour))
	ids := linearChain(t, lp)
	launch := mustCheckout(t, lp, ids[0])

	clock.Advance(30 * time.Minute)
	require.NoError(t, lp.PingLaunch(context.Background(), launch.ID))
	clock.Advance(30 * time.Minute)

	reclaimed, err := lp.DetectLostRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reclaimed)
	mustState(t, lp, ids[0], model.StateRunning)
}

func TestSelectors(t *testing.T) {
	low := model.NewFirework(1, "low", nil)
	mid := model.NewFirework(2, "mid", spec.Dict{"_priority": spec.Int(2)})
	high := model.NewFirework(3, "high", spec.Dict{"_priority": spec.Int(5)})
	candidates := []*model.Firework{low, mid, high}

	assert.Equal(t, low, LowestIDSelector{}.Select(candidates))
	assert.Equal(t, high, PrioritySelector{}.Select(candidates))
}

func TestPrioritySelector_TieBreaksByLowestID(t *testing.T) {
	a := model.NewFirework(1, "a", nil)
	b := model.NewFirework(2, "b", nil)
	assert.Equal(t, a, PrioritySelector{}.Select([]*model.Firework{a, b}))
}
