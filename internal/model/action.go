package model

import "github.com/roach88/sparkpad/internal/spec"

// Action describes the store-visible effects of a completed task. The
// store applies exactly these effects; it never inspects task logic.
type Action struct {
	// UpdateSpec merges key/value updates into the completed firework's
	// spec and into the spec of every direct child.
	UpdateSpec spec.Dict

	// PushSpec appends each value onto the named list field of the
	// completed firework's spec and of every direct child.
	PushSpec spec.Dict

	// StoredData is kept on the firework spec under "_stored_data" for
	// later inspection; it has no scheduling effect.
	StoredData spec.Dict

	// Detours are new fireworks inserted under the same workflow id
	// through the normal insertion path. Placeholder (negative) ids in
	// DetourLinks are reassigned by the allocator.
	Detours     []*Firework
	DetourLinks map[int64][]int64

	// DefuseWorkflow requests that every non-terminal member of the
	// owning workflow be marked DEFUSED.
	DefuseWorkflow bool
}

// Merge folds a later task's action into a. Spec mutations accumulate
// left to right; detours concatenate; defusal is sticky.
func (a *Action) Merge(b *Action) {
	if b == nil {
		return
	}
	if len(b.UpdateSpec) > 0 {
		if a.UpdateSpec == nil {
			a.UpdateSpec = spec.Dict{}
		}
		a.UpdateSpec.Merge(b.UpdateSpec)
	}
	if len(b.PushSpec) > 0 {
		if a.PushSpec == nil {
			a.PushSpec = spec.Dict{}
		}
		a.PushSpec.Merge(b.PushSpec)
	}
	if len(b.StoredData) > 0 {
		if a.StoredData == nil {
			a.StoredData = spec.Dict{}
		}
		a.StoredData.Merge(b.StoredData)
	}
	a.Detours = append(a.Detours, b.Detours...)
	if len(b.DetourLinks) > 0 {
		if a.DetourLinks == nil {
			a.DetourLinks = map[int64][]int64{}
		}
		for parent, children := range b.DetourLinks {
			a.DetourLinks[parent] = append(a.DetourLinks[parent], children...)
		}
	}
	a.DefuseWorkflow = a.DefuseWorkflow || b.DefuseWorkflow
}
