package model

import (
	"fmt"
	"time"

	"github.com/roach88/sparkpad/internal/spec"
)

// Launch records one attempt to run a firework. Launches are appended,
// never deleted - a rerun supersedes the old launch with a new one.
// Only State and LastPing advance after creation.
type Launch struct {
	ID        int64
	FWID      int64
	State     State
	Worker    string
	Host      string
	LaunchDir string
	CreatedOn time.Time
	LastPing  time.Time
}

// LaunchRecord is the storage split of a Launch. FWID and State are
// indexed so lost-run detection can scan without deserializing blobs.
type LaunchRecord struct {
	ID    int64
	FWID  int64
	State string
	Data  []byte
}

// ToRecord splits the launch into indexed fields and a canonical blob.
func (l *Launch) ToRecord() (LaunchRecord, error) {
	blob := spec.Dict{
		"worker":     spec.String(l.Worker),
		"host":       spec.String(l.Host),
		"launch_dir": spec.String(l.LaunchDir),
		"created_on": timeToValue(l.CreatedOn),
		"last_ping":  timeToValue(l.LastPing),
	}
	data, err := spec.MarshalCanonical(blob)
	if err != nil {
		return LaunchRecord{}, fmt.Errorf("launch %d: marshal blob: %w", l.ID, err)
	}
	return LaunchRecord{ID: l.ID, FWID: l.FWID, State: string(l.State), Data: data}, nil
}

// LaunchFromRecord reconstructs a launch from its stored record.
func LaunchFromRecord(rec LaunchRecord) (*Launch, error) {
	state, err := ParseState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("launch %d: %w", rec.ID, err)
	}

	blob, err := decodeBlob(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("launch %d: %w", rec.ID, err)
	}

	createdOn, err := timeFromValue(blob["created_on"])
	if err != nil {
		return nil, fmt.Errorf("launch %d: %w", rec.ID, err)
	}
	lastPing, err := timeFromValue(blob["last_ping"])
	if err != nil {
		return nil, fmt.Errorf("launch %d: %w", rec.ID, err)
	}

	return &Launch{
		ID:        rec.ID,
		FWID:      rec.FWID,
		State:     state,
		Worker:    blob.GetString("worker"),
		Host:      blob.GetString("host"),
		LaunchDir: blob.GetString("launch_dir"),
		CreatedOn: createdOn,
		LastPing:  lastPing,
	}, nil
}
