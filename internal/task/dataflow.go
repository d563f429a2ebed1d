package task

import (
	"context"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
)

// MergeTask combines named spec fields into one dict.
//
// Params:
//
//	inputs  - list of spec keys to collect (required)
//	outputs - spec key receiving the combined dict (required)
//	rename  - optional dict mapping an input key to the key it gets in
//	          the output dict
//
// An existing dict under outputs is extended; any other existing value
// there is an error. The combined dict lands in update_spec and in
// stored data.
type MergeTask struct{}

func (MergeTask) Run(_ context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error) {
	inputs, outKey, err := dataflowParams("merge", params)
	if err != nil {
		return nil, err
	}
	rename, _ := params["rename"].(spec.Dict)

	combined := spec.Dict{}
	if existing, ok := fwSpec[outKey]; ok {
		d, ok := existing.(spec.Dict)
		if !ok {
			return nil, fmt.Errorf("merge: spec key %q exists but is %T, not a dict", outKey, existing)
		}
		combined = d.Clone()
	}

	for _, key := range inputs {
		v, ok := fwSpec[key]
		if !ok {
			return nil, fmt.Errorf("merge: spec key %q missing", key)
		}
		target := key
		if rename != nil {
			if renamed := rename.GetString(key); renamed != "" {
				target = renamed
			}
		}
		combined[target] = v
	}

	return &model.Action{
		UpdateSpec: spec.Dict{outKey: combined},
		StoredData: spec.Dict{outKey: combined},
	}, nil
}

// CollectTask appends named spec fields onto one list, in input order.
//
// Params:
//
//	inputs  - list of spec keys to collect (required)
//	outputs - spec key receiving the list (required)
//
// An existing list under outputs is appended to; any other existing
// value there is an error.
type CollectTask struct{}

func (CollectTask) Run(_ context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error) {
	inputs, outKey, err := dataflowParams("collect", params)
	if err != nil {
		return nil, err
	}

	var collected spec.List
	if existing, ok := fwSpec[outKey]; ok {
		l, ok := existing.(spec.List)
		if !ok {
			return nil, fmt.Errorf("collect: spec key %q exists but is %T, not a list", outKey, existing)
		}
		collected = append(spec.List{}, l...)
	}

	for _, key := range inputs {
		v, ok := fwSpec[key]
		if !ok {
			return nil, fmt.Errorf("collect: spec key %q missing", key)
		}
		collected = append(collected, v)
	}

	return &model.Action{
		UpdateSpec: spec.Dict{outKey: collected},
		StoredData: spec.Dict{outKey: collected},
	}, nil
}

// SplitTask fans a list out into detour fireworks, one per element.
//
// Params:
//
//	inputs - spec key holding the list to split (required)
//	spec   - optional dict merged into every detour's spec
//	tasks  - optional list of task defs ({type, params}) each detour
//	         runs; omitted means the detours are pure data nodes
//
// Each detour's spec carries the element under the inputs key. An
// empty input list defuses the workflow: nothing downstream can have
// its data.
type SplitTask struct{}

func (SplitTask) Run(_ context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error) {
	inKey := params.GetString("inputs")
	if inKey == "" {
		return nil, fmt.Errorf("split: params key %q is required", "inputs")
	}

	raw, ok := fwSpec[inKey]
	if !ok {
		return nil, fmt.Errorf("split: spec key %q missing", inKey)
	}
	items, ok := raw.(spec.List)
	if !ok {
		return nil, fmt.Errorf("split: spec key %q is %T, not a list", inKey, raw)
	}

	if len(items) == 0 {
		return &model.Action{DefuseWorkflow: true}, nil
	}

	base, _ := params["spec"].(spec.Dict)
	tasks, err := detourTasks(params)
	if err != nil {
		return nil, err
	}

	action := &model.Action{}
	for i, item := range items {
		sp := spec.Dict{}
		if base != nil {
			sp = base.Clone()
		}
		sp[inKey] = item

		// Placeholder ids, reassigned by the allocator on insertion.
		fw := model.NewFirework(int64(-(i + 1)), fmt.Sprintf("split-%s-%d", inKey, i), sp, tasks...)
		action.Detours = append(action.Detours, fw)
	}
	return action, nil
}

// dataflowParams extracts the shared inputs/outputs parameters of
// merge and collect.
func dataflowParams(op string, params spec.Dict) ([]string, string, error) {
	rawInputs := params.GetList("inputs")
	if rawInputs == nil {
		return nil, "", fmt.Errorf("%s: params key %q is required", op, "inputs")
	}
	inputs := make([]string, len(rawInputs))
	for i, v := range rawInputs {
		s, ok := v.(spec.String)
		if !ok {
			return nil, "", fmt.Errorf("%s: inputs[%d] is %T, not a string", op, i, v)
		}
		inputs[i] = string(s)
	}

	outKey := params.GetString("outputs")
	if outKey == "" {
		return nil, "", fmt.Errorf("%s: params key %q is required", op, "outputs")
	}
	return inputs, outKey, nil
}

// detourTasks decodes the optional tasks parameter of split.
func detourTasks(params spec.Dict) ([]model.TaskDef, error) {
	raw := params.GetList("tasks")
	if raw == nil {
		return nil, nil
	}
	tasks := make([]model.TaskDef, len(raw))
	for i, v := range raw {
		td, ok := v.(spec.Dict)
		if !ok {
			return nil, fmt.Errorf("split: tasks[%d] is %T, not a dict", i, v)
		}
		typ := td.GetString("type")
		if typ == "" {
			return nil, fmt.Errorf("split: tasks[%d] has no type", i)
		}
		taskParams, _ := td["params"].(spec.Dict)
		if taskParams == nil {
			taskParams = spec.Dict{}
		}
		tasks[i] = model.TaskDef{Type: typ, Params: taskParams}
	}
	return tasks, nil
}
