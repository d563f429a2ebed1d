package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/sparkpad/internal/model"
)

// diamondStatus builds a four-node diamond with one node in each of
// the interesting states.
func diamondStatus() (*model.Workflow, []*model.Firework) {
	a := model.NewFirework(1, "alpha", nil)
	b := model.NewFirework(2, "bravo", nil)
	c := model.NewFirework(3, "charlie", nil)
	d := model.NewFirework(4, "delta", nil)
	a.State = model.StateCompleted
	b.State = model.StateRunning
	c.State = model.StateReady
	d.State = model.StateWaiting

	fws := []*model.Firework{a, b, c, d}
	wf := model.NewWorkflow("demo", fws, map[int64][]int64{
		1: {2, 3},
		2: {4},
		3: {4},
	}, nil)
	wf.ID = 1
	return wf, fws
}

func TestRenderStatus_Golden(t *testing.T) {
	wf, fws := diamondStatus()

	out := RenderStatus(wf, fws)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "status_diamond", []byte(out))
}

func TestRenderStatus_OrderIndependentOfInput(t *testing.T) {
	wf, fws := diamondStatus()
	reversed := []*model.Firework{fws[3], fws[2], fws[1], fws[0]}

	assert.Equal(t, RenderStatus(wf, fws), RenderStatus(wf, reversed))
}

func TestStatusPayload(t *testing.T) {
	wf, fws := diamondStatus()

	payload := statusPayload(wf, fws)
	assert.Equal(t, int64(1), payload["workflow_id"])
	rows := payload["fireworks"].([]fireworkStatus)
	assert.Len(t, rows, 4)
	assert.Equal(t, "COMPLETED", rows[0].State)
	assert.Equal(t, []int64{2, 3}, rows[3].Parents)
}
