package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparkpad/internal/spec"
)

// diamond builds A -> {B, C} -> D with placeholder ids -1..-4.
func diamond(t *testing.T) (*Workflow, []*Firework) {
	t.Helper()
	a := NewFirework(-1, "a", nil)
	b := NewFirework(-2, "b", nil)
	c := NewFirework(-3, "c", nil)
	d := NewFirework(-4, "d", nil)
	links := map[int64][]int64{
		-1: {-2, -3},
		-2: {-4},
		-3: {-4},
	}
	fws := []*Firework{a, b, c, d}
	wf := NewWorkflow("diamond", fws, links, nil)
	return wf, fws
}

func TestWorkflow_Topology(t *testing.T) {
	wf, _ := diamond(t)

	assert.Equal(t, []int64{-4, -3, -2, -1}, wf.NodeIDs())
	assert.Equal(t, []int64{-1}, wf.RootIDs())
	assert.Equal(t, []int64{-3, -2}, wf.ParentsOf(-4))
	assert.Empty(t, wf.ParentsOf(-1))
	assert.ElementsMatch(t, []int64{-2, -3}, wf.ChildrenOf(-1))
	assert.ElementsMatch(t, []int64{-2, -3, -4}, wf.Descendants(-1))
	assert.Equal(t, []int64{-4}, wf.Descendants(-2))
}

func TestWorkflow_Validate(t *testing.T) {
	wf, _ := diamond(t)
	assert.NoError(t, wf.Validate())
}

func TestWorkflow_ValidateRejectsNonMemberEdge(t *testing.T) {
	wf, _ := diamond(t)
	wf.Links[-4] = []int64{-99}

	err := wf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-member")
}

func TestWorkflow_ValidateRejectsCycle(t *testing.T) {
	wf, _ := diamond(t)
	wf.Links[-4] = []int64{-1}

	err := wf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestWorkflow_ReassignIDs(t *testing.T) {
	wf, _ := diamond(t)
	wf.ReassignIDs(map[int64]int64{-1: 1, -2: 2, -3: 3, -4: 4})

	assert.Equal(t, []int64{1, 2, 3, 4}, wf.NodeIDs())
	assert.Equal(t, []int64{2, 3}, wf.ParentsOf(4))
	assert.ElementsMatch(t, []int64{2, 3}, wf.ChildrenOf(1))
	assert.Len(t, wf.FWStates, 4)
	_, ok := wf.FWStates[1]
	assert.True(t, ok)
}

func TestWorkflow_RecordRoundTrip(t *testing.T) {
	wf, _ := diamond(t)
	wf.ReassignIDs(map[int64]int64{-1: 1, -2: 2, -3: 3, -4: 4})
	wf.ID = 7
	wf.Metadata = spec.Dict{"owner": spec.String("käte"), "retries": spec.Int(3)}
	wf.FWStates[1] = StateCompleted

	rec, err := wf.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)

	got, err := WorkflowFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, wf.Name, got.Name)
	assert.Equal(t, wf.Links, got.Links)
	assert.Equal(t, wf.FWStates, got.FWStates)
	assert.True(t, spec.Equal(wf.Metadata, got.Metadata))
	assert.Equal(t, wf.CreatedOn.UTC(), got.CreatedOn)
}
