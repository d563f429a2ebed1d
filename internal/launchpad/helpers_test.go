package launchpad

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/store"
	"github.com/roach88/sparkpad/internal/testutil"
)

var testStart = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

// newTestPad builds a pad over a temp database with a deterministic
// clock and launch tokens.
func newTestPad(t *testing.T, opts ...Option) (*LaunchPad, *testutil.StepClock) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "pad.db"))
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewStepClock(testStart, time.Second)
	base := []Option{
		WithClock(clock.Now),
		WithTokenGenerator(testutil.NewFixedTokenGenerator("")),
	}
	return New(st, append(base, opts...)...), clock
}

// linearChain inserts A -> B -> C and returns the assigned ids in
// order.
func linearChain(t *testing.T, lp *LaunchPad) []int64 {
	t.Helper()

	a := model.NewFirework(-1, "a", nil)
	b := model.NewFirework(-2, "b", nil)
	c := model.NewFirework(-3, "c", nil)
	wf := model.NewWorkflow("chain", []*model.Firework{a, b, c},
		map[int64][]int64{-1: {-2}, -2: {-3}}, nil)

	oldNew, err := lp.AddWorkflow(context.Background(), wf, []*model.Firework{a, b, c})
	if err != nil {
		t.Fatalf("AddWorkflow failed: %v", err)
	}
	return []int64{oldNew[-1], oldNew[-2], oldNew[-3]}
}

// mustCheckout claims the given firework and returns its launch.
func mustCheckout(t *testing.T, lp *LaunchPad, fwID int64) *model.Launch {
	t.Helper()

	_, launch, err := lp.Checkout(context.Background(), Worker{Name: "test"}, "", fwID)
	if err != nil {
		t.Fatalf("Checkout(%d) failed: %v", fwID, err)
	}
	if launch == nil {
		t.Fatalf("Checkout(%d) found nothing runnable", fwID)
	}
	return launch
}

// mustState asserts a firework's stored state.
func mustState(t *testing.T, lp *LaunchPad, fwID int64, want model.State) {
	t.Helper()

	fw, err := lp.GetFirework(context.Background(), fwID)
	if err != nil {
		t.Fatalf("GetFirework(%d) failed: %v", fwID, err)
	}
	if fw.State != want {
		t.Fatalf("firework %d state = %s, want %s", fwID, fw.State, want)
	}
}

// runToState claims fwID and completes it with the given final state.
func runToState(t *testing.T, lp *LaunchPad, fwID int64, final model.State, action *model.Action) {
	t.Helper()

	launch := mustCheckout(t, lp, fwID)
	if err := lp.CompleteLaunch(context.Background(), launch.ID, action, final); err != nil {
		t.Fatalf("CompleteLaunch(%d) failed: %v", launch.ID, err)
	}
}
