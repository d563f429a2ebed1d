package model

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/roach88/sparkpad/internal/spec"
)

// Workflow is a DAG of fireworks. Links map parent id → child ids;
// every member firework has an entry, leaves with an empty slice. The
// set of link keys is exactly the workflow's membership.
//
// FWStates is a denormalized copy of each member's last-known state,
// rewritten on every refresh so summaries never hydrate member blobs.
type Workflow struct {
	ID        int64
	Name      string
	Metadata  spec.Dict
	Links     map[int64][]int64
	FWStates  map[int64]State
	CreatedOn time.Time
	UpdatedOn time.Time
}

// NewWorkflow builds an unsaved workflow over the given fireworks.
// Links may reference placeholder (negative) ids; members missing from
// links get an empty adjacency entry.
func NewWorkflow(name string, fws []*Firework, links map[int64][]int64, metadata spec.Dict) *Workflow {
	if metadata == nil {
		metadata = spec.Dict{}
	}
	full := make(map[int64][]int64, len(fws))
	for parent, children := range links {
		full[parent] = append([]int64(nil), children...)
	}
	states := make(map[int64]State, len(fws))
	for _, fw := range fws {
		if _, ok := full[fw.ID]; !ok {
			full[fw.ID] = []int64{}
		}
		states[fw.ID] = fw.State
	}
	now := time.Now().UTC()
	return &Workflow{
		Name:      name,
		Metadata:  metadata,
		Links:     full,
		FWStates:  states,
		CreatedOn: now,
		UpdatedOn: now,
	}
}

// NodeIDs returns the member firework ids in ascending order.
func (wf *Workflow) NodeIDs() []int64 {
	ids := make([]int64, 0, len(wf.Links))
	for id := range wf.Links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParentsOf returns the ids with an edge into id, ascending.
func (wf *Workflow) ParentsOf(id int64) []int64 {
	var parents []int64
	for parent, children := range wf.Links {
		for _, child := range children {
			if child == id {
				parents = append(parents, parent)
				break
			}
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })
	return parents
}

// ChildrenOf returns the ids id has an edge to.
func (wf *Workflow) ChildrenOf(id int64) []int64 {
	return wf.Links[id]
}

// RootIDs returns the members with no incoming edges, ascending.
// A node that is both root and leaf still counts as a root.
func (wf *Workflow) RootIDs() []int64 {
	hasParent := make(map[int64]bool, len(wf.Links))
	for _, children := range wf.Links {
		for _, child := range children {
			hasParent[child] = true
		}
	}
	var roots []int64
	for id := range wf.Links {
		if !hasParent[id] {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Descendants returns every node transitively reachable from id,
// excluding id itself, in BFS order.
func (wf *Workflow) Descendants(id int64) []int64 {
	seen := map[int64]bool{id: true}
	queue := append([]int64(nil), wf.Links[id]...)
	var out []int64
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		queue = append(queue, wf.Links[next]...)
	}
	return out
}

// Validate checks the structural invariants: every edge endpoint is a
// member, and the adjacency is acyclic.
func (wf *Workflow) Validate() error {
	for parent, children := range wf.Links {
		for _, child := range children {
			if _, ok := wf.Links[child]; !ok {
				return fmt.Errorf("workflow %d: edge %d→%d references non-member %d", wf.ID, parent, child, child)
			}
		}
	}
	if cycle := findCycle(wf.Links); cycle != nil {
		return fmt.Errorf("workflow %d: cycle through nodes %v", wf.ID, cycle)
	}
	return nil
}

// findCycle runs a three-color DFS and returns the nodes of one cycle,
// or nil for a DAG.
func findCycle(links map[int64][]int64) []int64 {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[int64]int, len(links))
	var path []int64
	var cycle []int64

	var visit func(id int64) bool
	visit = func(id int64) bool {
		color[id] = gray
		path = append(path, id)
		for _, child := range links[id] {
			switch color[child] {
			case gray:
				// Slice the path from the first occurrence of child
				for i, n := range path {
					if n == child {
						cycle = append([]int64(nil), path[i:]...)
						break
					}
				}
				return true
			case white:
				if visit(child) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	// Deterministic start order
	ids := make([]int64, 0, len(links))
	for id := range links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if color[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}

// ReassignIDs rewrites every occurrence of the old ids after the
// allocator hands out real ones. Ids absent from oldNew pass through.
func (wf *Workflow) ReassignIDs(oldNew map[int64]int64) {
	mapped := func(id int64) int64 {
		if newID, ok := oldNew[id]; ok {
			return newID
		}
		return id
	}

	links := make(map[int64][]int64, len(wf.Links))
	for parent, children := range wf.Links {
		newChildren := make([]int64, len(children))
		for i, child := range children {
			newChildren[i] = mapped(child)
		}
		links[mapped(parent)] = newChildren
	}
	wf.Links = links

	states := make(map[int64]State, len(wf.FWStates))
	for id, state := range wf.FWStates {
		states[mapped(id)] = state
	}
	wf.FWStates = states
}

// WorkflowRecord is the storage split of a Workflow.
type WorkflowRecord struct {
	ID   int64
	Data []byte
}

// ToRecord serializes the workflow payload wholesale - topology and
// cached states are always replaced together, never patched.
func (wf *Workflow) ToRecord() (WorkflowRecord, error) {
	states := make(spec.Dict, len(wf.FWStates))
	for id, state := range wf.FWStates {
		states[strconv.FormatInt(id, 10)] = spec.String(string(state))
	}

	metadata := wf.Metadata
	if metadata == nil {
		metadata = spec.Dict{}
	}

	blob := spec.Dict{
		"name":       spec.String(wf.Name),
		"metadata":   metadata,
		"links":      linksToValue(wf.Links),
		"fw_states":  states,
		"created_on": timeToValue(wf.CreatedOn),
		"updated_on": timeToValue(wf.UpdatedOn),
	}

	data, err := spec.MarshalCanonical(blob)
	if err != nil {
		return WorkflowRecord{}, fmt.Errorf("workflow %d: marshal blob: %w", wf.ID, err)
	}
	return WorkflowRecord{ID: wf.ID, Data: data}, nil
}

// WorkflowFromRecord reconstructs a workflow from its stored record.
func WorkflowFromRecord(rec WorkflowRecord) (*Workflow, error) {
	blob, err := decodeBlob(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}

	metadata, err := dictField(blob, "metadata")
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}

	links, err := linksFromValue(blob["links"])
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}

	states := make(map[int64]State)
	rawStates, err := dictField(blob, "fw_states")
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}
	for key, raw := range rawStates {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workflow %d: fw_states key %q: %w", rec.ID, key, err)
		}
		s, ok := raw.(spec.String)
		if !ok {
			return nil, fmt.Errorf("workflow %d: fw_states[%s] is %T, not a string", rec.ID, key, raw)
		}
		state, err := ParseState(string(s))
		if err != nil {
			return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
		}
		states[id] = state
	}

	createdOn, err := timeFromValue(blob["created_on"])
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}
	updatedOn, err := timeFromValue(blob["updated_on"])
	if err != nil {
		return nil, fmt.Errorf("workflow %d: %w", rec.ID, err)
	}

	return &Workflow{
		ID:        rec.ID,
		Name:      blob.GetString("name"),
		Metadata:  metadata,
		Links:     links,
		FWStates:  states,
		CreatedOn: createdOn,
		UpdatedOn: updatedOn,
	}, nil
}
