// Package task defines the execution contract for firework tasks and a
// registry of named task implementations.
//
// Tasks are resolved by capability name from a registry built at
// process start. There is no runtime symbol lookup: a workflow file
// naming an unregistered task fails at resolution, before anything is
// claimed.
package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/spec"
)

// Task executes one step of a firework. fwSpec is the firework's
// current spec (tasks earlier in the sequence may have mutated it
// through their actions); params is the task's own static
// configuration from the workflow definition.
//
// A nil action means no store-visible effect.
type Task interface {
	Run(ctx context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error)
}

// Func adapts a function to the Task interface.
type Func func(ctx context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error)

// Run calls f.
func (f Func) Run(ctx context.Context, fwSpec spec.Dict, params spec.Dict) (*model.Action, error) {
	return f(ctx, fwSpec, params)
}

// ErrUnknownTask reports a task type absent from the registry.
var ErrUnknownTask = errors.New("unknown task type")

// Registry maps task type names to implementations. Safe for
// concurrent use after construction.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry creates a registry preloaded with the built-in dataflow
// tasks: merge, collect, split.
func NewRegistry() *Registry {
	r := &Registry{tasks: make(map[string]Task)}
	r.tasks["merge"] = MergeTask{}
	r.tasks["collect"] = CollectTask{}
	r.tasks["split"] = SplitTask{}
	return r
}

// Register adds a task under a type name. Registering over an existing
// name is an error; shadowing a builtin must be deliberate and goes
// through Replace.
func (r *Registry) Register(name string, t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[name]; ok {
		return fmt.Errorf("task type %q already registered", name)
	}
	r.tasks[name] = t
	return nil
}

// Replace installs a task under a type name, overwriting any existing
// registration.
func (r *Registry) Replace(name string, t Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = t
}

// Resolve looks up a task by type name.
func (r *Registry) Resolve(name string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownTask)
	}
	return t, nil
}

// Names lists the registered task types, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
