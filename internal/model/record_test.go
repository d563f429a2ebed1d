package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparkpad/internal/spec"
)

func TestFirework_RecordRoundTrip(t *testing.T) {
	fw := NewFirework(5, "unicode-café", spec.Dict{
		"structure": spec.Dict{
			"atoms": spec.List{spec.String("Si"), spec.String("O")},
			"count": spec.Int(3),
		},
		"tolerance": spec.Float(1e-6),
		"_priority": spec.Int(10),
		"note":      spec.Null{},
	},
		TaskDef{Type: "merge", Params: spec.Dict{"inputs": spec.List{spec.String("a")}, "outputs": spec.String("out")}},
		TaskDef{Type: "collect"},
	)
	fw.State = StateRunning
	fw.LaunchIDs = []int64{2, 9}

	rec, err := fw.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.ID)
	assert.Equal(t, "RUNNING", rec.State)

	got, err := FireworkFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, fw.Name, got.Name)
	assert.Equal(t, fw.State, got.State)
	assert.Equal(t, fw.LaunchIDs, got.LaunchIDs)
	assert.True(t, spec.Equal(fw.Spec, got.Spec), "spec mismatch")
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "merge", got.Tasks[0].Type)
	assert.True(t, spec.Equal(fw.Tasks[0].Params, got.Tasks[0].Params))
	assert.Equal(t, "collect", got.Tasks[1].Type)
	assert.Equal(t, fw.CreatedOn.UTC(), got.CreatedOn)
	assert.Equal(t, fw.UpdatedOn.UTC(), got.UpdatedOn)
}

func TestFirework_RecordEmptySpec(t *testing.T) {
	fw := NewFirework(1, "bare", nil)

	rec, err := fw.ToRecord()
	require.NoError(t, err)

	got, err := FireworkFromRecord(rec)
	require.NoError(t, err)
	assert.NotNil(t, got.Spec)
	assert.Empty(t, got.Spec)
	assert.Empty(t, got.Tasks)
	assert.Empty(t, got.LaunchIDs)
}

func TestFirework_RecordCanonicalBytesStable(t *testing.T) {
	fw := NewFirework(3, "stable", spec.Dict{
		"b": spec.Int(2),
		"a": spec.Int(1),
	})

	rec1, err := fw.ToRecord()
	require.NoError(t, err)
	rec2, err := fw.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, rec1.Data, rec2.Data, "canonical encoding must be byte-stable")
}

func TestFirework_FromRecordRejectsBadState(t *testing.T) {
	fw := NewFirework(1, "x", nil)
	rec, err := fw.ToRecord()
	require.NoError(t, err)
	rec.State = "MELTED"

	_, err = FireworkFromRecord(rec)
	assert.Error(t, err)
}

func TestLaunch_RecordRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)
	l := &Launch{
		ID:        4,
		FWID:      9,
		State:     StateRunning,
		Worker:    "alice",
		Host:      "node-17",
		LaunchDir: "launch-0195",
		CreatedOn: created,
		LastPing:  created.Add(2 * time.Minute),
	}

	rec, err := l.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, int64(9), rec.FWID)

	got, err := LaunchFromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}
