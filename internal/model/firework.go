package model

import (
	"fmt"
	"time"

	"github.com/roach88/sparkpad/internal/spec"
)

// TaskDef names a registered task and carries its parameters. Tasks are
// resolved through a registry built at process start, never by runtime
// symbol lookup.
type TaskDef struct {
	Type   string
	Params spec.Dict
}

// Firework is a single task node in a workflow.
//
// The id is assigned once by the allocator at insertion and immutable
// afterwards; it is unique across the entire store, not just within the
// owning workflow. LaunchIDs lists this firework's execution attempts,
// most recent last.
type Firework struct {
	ID        int64
	State     State
	Name      string
	Spec      spec.Dict
	Tasks     []TaskDef
	LaunchIDs []int64
	CreatedOn time.Time
	UpdatedOn time.Time
}

// NewFirework builds an unsaved firework with a placeholder id.
// Callers use negative ids to express links between not-yet-inserted
// fireworks; the launchpad reassigns them on insertion.
func NewFirework(id int64, name string, sp spec.Dict, tasks ...TaskDef) *Firework {
	if sp == nil {
		sp = spec.Dict{}
	}
	now := time.Now().UTC()
	return &Firework{
		ID:        id,
		State:     StateWaiting,
		Name:      name,
		Spec:      sp,
		Tasks:     tasks,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

// FireworkRecord is the storage split of a Firework: indexed scalars
// plus an opaque blob.
type FireworkRecord struct {
	ID    int64
	State string
	Data  []byte
}

// ToRecord splits the firework into indexed fields and a canonical blob.
func (fw *Firework) ToRecord() (FireworkRecord, error) {
	tasks := make(spec.List, len(fw.Tasks))
	for i, task := range fw.Tasks {
		params := task.Params
		if params == nil {
			params = spec.Dict{}
		}
		tasks[i] = spec.Dict{
			"type":   spec.String(task.Type),
			"params": params,
		}
	}

	blob := spec.Dict{
		"name":       spec.String(fw.Name),
		"spec":       fw.Spec,
		"tasks":      tasks,
		"launches":   idsToValue(fw.LaunchIDs),
		"created_on": timeToValue(fw.CreatedOn),
		"updated_on": timeToValue(fw.UpdatedOn),
	}
	if fw.Spec == nil {
		blob["spec"] = spec.Dict{}
	}

	data, err := spec.MarshalCanonical(blob)
	if err != nil {
		return FireworkRecord{}, fmt.Errorf("firework %d: marshal blob: %w", fw.ID, err)
	}

	return FireworkRecord{ID: fw.ID, State: string(fw.State), Data: data}, nil
}

// FireworkFromRecord reconstructs a firework from its stored record.
func FireworkFromRecord(rec FireworkRecord) (*Firework, error) {
	state, err := ParseState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}

	blob, err := decodeBlob(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}

	sp, err := dictField(blob, "spec")
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}

	var tasks []TaskDef
	if rawTasks := blob.GetList("tasks"); rawTasks != nil {
		tasks = make([]TaskDef, len(rawTasks))
		for i, raw := range rawTasks {
			td, ok := raw.(spec.Dict)
			if !ok {
				return nil, fmt.Errorf("firework %d: task[%d] is %T, not a dict", rec.ID, i, raw)
			}
			params, err := dictField(td, "params")
			if err != nil {
				return nil, fmt.Errorf("firework %d: task[%d]: %w", rec.ID, i, err)
			}
			tasks[i] = TaskDef{Type: td.GetString("type"), Params: params}
		}
	}

	launchIDs, err := idsFromValue(blob["launches"])
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}

	createdOn, err := timeFromValue(blob["created_on"])
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}
	updatedOn, err := timeFromValue(blob["updated_on"])
	if err != nil {
		return nil, fmt.Errorf("firework %d: %w", rec.ID, err)
	}

	return &Firework{
		ID:        rec.ID,
		State:     state,
		Name:      blob.GetString("name"),
		Spec:      sp,
		Tasks:     tasks,
		LaunchIDs: launchIDs,
		CreatedOn: createdOn,
		UpdatedOn: updatedOn,
	}, nil
}
