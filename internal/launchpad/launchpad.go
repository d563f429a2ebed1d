package launchpad

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/sparkpad/internal/model"
	"github.com/roach88/sparkpad/internal/store"
)

// DefaultLostRunThreshold is how stale a launch heartbeat may be before
// DetectLostRuns reclaims it.
const DefaultLostRunThreshold = 4 * time.Hour

// Worker identifies the process claiming fireworks.
type Worker struct {
	Name string
	Host string
}

// LaunchPad is the orchestration facade over the store.
//
// Multiple workers may share one LaunchPad, or open their own against
// the same database file; all claims serialize through the store.
type LaunchPad struct {
	store            *store.Store
	selector         Selector
	tokens           LaunchTokenGenerator
	lostRunThreshold time.Duration
	now              func() time.Time
}

// Option configures a LaunchPad.
type Option func(*LaunchPad)

// WithSelector overrides the checkout selection policy.
func WithSelector(sel Selector) Option {
	return func(lp *LaunchPad) { lp.selector = sel }
}

// WithTokenGenerator overrides the launch token generator (for testing).
func WithTokenGenerator(gen LaunchTokenGenerator) Option {
	return func(lp *LaunchPad) { lp.tokens = gen }
}

// WithLostRunThreshold overrides the heartbeat staleness threshold.
func WithLostRunThreshold(d time.Duration) Option {
	return func(lp *LaunchPad) { lp.lostRunThreshold = d }
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(lp *LaunchPad) { lp.now = now }
}

// New creates a LaunchPad over an open store.
func New(st *store.Store, opts ...Option) *LaunchPad {
	lp := &LaunchPad{
		store:            st,
		selector:         LowestIDSelector{},
		tokens:           UUIDv7Generator{},
		lostRunThreshold: DefaultLostRunThreshold,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

// AddWorkflow inserts a workflow and its member fireworks atomically.
//
// Caller-side (placeholder) firework ids - conventionally negative -
// are replaced with allocator-assigned ids; the returned map records
// old id → new id. Root fireworks start READY, all others WAITING.
func (lp *LaunchPad) AddWorkflow(ctx context.Context, wf *model.Workflow, fws []*model.Firework) (map[int64]int64, error) {
	if len(fws) == 0 {
		return nil, fmt.Errorf("add workflow: a workflow needs at least one firework")
	}
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("add workflow: %w", err)
	}
	if err := checkAdjacencyCoverage(wf, fws); err != nil {
		return nil, fmt.Errorf("add workflow: %w", err)
	}

	oldNew, err := lp.reassignFireworkIDs(ctx, fws)
	if err != nil {
		return nil, fmt.Errorf("add workflow: %w", err)
	}
	wf.ReassignIDs(oldNew)

	wfID, err := lp.store.NextID(ctx, store.CounterWorkflow, 1)
	if err != nil {
		return nil, fmt.Errorf("add workflow: %w", err)
	}
	wf.ID = wfID

	roots := make(map[int64]bool)
	for _, id := range wf.RootIDs() {
		roots[id] = true
	}
	now := lp.now()
	for _, fw := range fws {
		if roots[fw.ID] {
			fw.State = model.StateReady
		} else {
			fw.State = model.StateWaiting
		}
		fw.UpdatedOn = now
		wf.FWStates[fw.ID] = fw.State
	}
	wf.UpdatedOn = now

	if err := lp.store.InsertWorkflow(ctx, wf, fws); err != nil {
		return nil, fmt.Errorf("add workflow: %w", err)
	}
	return oldNew, nil
}

// AppendWorkflow extends an existing workflow with new fireworks -
// the detour path. It is graph insertion parameterized by an existing
// workflow id, not a separate code path: ids come from the same
// allocator, membership rows are written in the same transaction as the
// workflow payload, and the payload is replaced wholesale.
//
// links may connect existing member ids to new placeholder ids and vice
// versa. A new firework starts READY when it has no parents or all its
// parents are COMPLETED, WAITING otherwise.
func (lp *LaunchPad) AppendWorkflow(ctx context.Context, wfID int64, fws []*model.Firework, links map[int64][]int64) (map[int64]int64, error) {
	if len(fws) == 0 {
		return map[int64]int64{}, nil
	}

	wf, members, err := lp.GetWorkflowByFirework(ctx, 0, wfID)
	if err != nil {
		return nil, fmt.Errorf("append workflow: %w", err)
	}

	// Every link endpoint must resolve to a firework row: either a
	// member already in the store or one of the new placeholders.
	batch := make(map[int64]bool, len(fws))
	for _, fw := range fws {
		batch[fw.ID] = true
	}
	for parent, children := range links {
		if _, member := wf.Links[parent]; !member && !batch[parent] {
			return nil, fmt.Errorf("append workflow: links parent %d is neither a new firework nor a member of workflow %d", parent, wfID)
		}
		for _, child := range children {
			if _, member := wf.Links[child]; !member && !batch[child] {
				return nil, fmt.Errorf("append workflow: links child %d is neither a new firework nor a member of workflow %d", child, wfID)
			}
		}
	}

	oldNew, err := lp.reassignFireworkIDs(ctx, fws)
	if err != nil {
		return nil, fmt.Errorf("append workflow: %w", err)
	}

	mapped := func(id int64) int64 {
		if newID, ok := oldNew[id]; ok {
			return newID
		}
		return id
	}
	for parent, children := range links {
		p := mapped(parent)
		for _, child := range children {
			wf.Links[p] = append(wf.Links[p], mapped(child))
		}
	}
	for _, fw := range fws {
		if _, ok := wf.Links[fw.ID]; !ok {
			wf.Links[fw.ID] = []int64{}
		}
	}
	if err := wf.Validate(); err != nil {
		return nil, fmt.Errorf("append workflow: %w", err)
	}

	states := make(map[int64]model.State, len(members))
	for _, m := range members {
		states[m.ID] = m.State
	}

	now := lp.now()
	for _, fw := range fws {
		fw.State = readiness(wf, fw.ID, states)
		fw.UpdatedOn = now
		states[fw.ID] = fw.State
		wf.FWStates[fw.ID] = fw.State
	}
	wf.UpdatedOn = now

	if err := lp.store.InsertWorkflow(ctx, wf, fws); err != nil {
		return nil, fmt.Errorf("append workflow: %w", err)
	}
	return oldNew, nil
}

// reassignFireworkIDs allocates one contiguous id range for the batch
// and rewrites each firework's id, lowest placeholder first.
func (lp *LaunchPad) reassignFireworkIDs(ctx context.Context, fws []*model.Firework) (map[int64]int64, error) {
	sorted := append([]*model.Firework(nil), fws...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	seen := make(map[int64]bool, len(sorted))
	for _, fw := range sorted {
		if seen[fw.ID] {
			return nil, fmt.Errorf("duplicate firework id %d in batch", fw.ID)
		}
		seen[fw.ID] = true
	}

	first, err := lp.store.NextID(ctx, store.CounterFirework, int64(len(sorted)))
	if err != nil {
		return nil, err
	}

	oldNew := make(map[int64]int64, len(sorted))
	for i, fw := range sorted {
		newID := first + int64(i)
		oldNew[fw.ID] = newID
		fw.ID = newID
	}
	return oldNew, nil
}

// checkAdjacencyCoverage verifies the workflow's adjacency key set is
// exactly the firework batch. A links key without a firework row would
// persist a phantom member that every later read rejects as a
// consistency violation.
func checkAdjacencyCoverage(wf *model.Workflow, fws []*model.Firework) error {
	batch := make(map[int64]bool, len(fws))
	for _, fw := range fws {
		batch[fw.ID] = true
	}
	for id := range wf.Links {
		if !batch[id] {
			return fmt.Errorf("links name id %d but the batch has no such firework", id)
		}
	}
	for _, fw := range fws {
		if _, ok := wf.Links[fw.ID]; !ok {
			return fmt.Errorf("firework %d is missing from the workflow adjacency", fw.ID)
		}
	}
	return nil
}

// readiness derives a firework's waiting/ready state from its parents'
// states: READY iff it has no parents or every parent is COMPLETED.
func readiness(wf *model.Workflow, id int64, states map[int64]model.State) model.State {
	parents := wf.ParentsOf(id)
	for _, parent := range parents {
		if states[parent] != model.StateCompleted {
			return model.StateWaiting
		}
	}
	return model.StateReady
}

// GetFirework retrieves a firework by id.
func (lp *LaunchPad) GetFirework(ctx context.Context, id int64) (*model.Firework, error) {
	return lp.store.GetFirework(ctx, id)
}

// GetLaunch retrieves a launch by id.
func (lp *LaunchPad) GetLaunch(ctx context.Context, id int64) (*model.Launch, error) {
	return lp.store.GetLaunch(ctx, id)
}

// GetWorkflowByFirework resolves a firework's owning workflow through
// the membership index and hydrates every member firework. Exactly one
// of fwID or wfID must be non-zero; passing wfID skips the index
// lookup.
//
// The membership index is checked against the workflow payload; any
// disagreement aborts with a ConsistencyError rather than being patched
// over.
func (lp *LaunchPad) GetWorkflowByFirework(ctx context.Context, fwID, wfID int64) (*model.Workflow, []*model.Firework, error) {
	if wfID == 0 {
		var err error
		wfID, err = lp.store.WorkflowIDByFirework(ctx, fwID)
		if err != nil {
			return nil, nil, err
		}
	}

	wf, err := lp.store.GetWorkflow(ctx, wfID)
	if err != nil {
		return nil, nil, err
	}

	memberIDs := wf.NodeIDs()
	mappedIDs, err := lp.store.MappingForWorkflow(ctx, wfID)
	if err != nil {
		return nil, nil, err
	}
	if !equalIDs(memberIDs, mappedIDs) {
		return nil, nil, &store.ConsistencyError{
			Message:    "membership index disagrees with workflow payload",
			WorkflowID: wfID,
		}
	}

	fws, err := lp.store.GetFireworks(ctx, memberIDs)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil, &store.ConsistencyError{
				Message:    fmt.Sprintf("workflow references missing firework: %v", err),
				WorkflowID: wfID,
			}
		}
		return nil, nil, err
	}
	return wf, fws, nil
}

// equalIDs compares two ascending id slices.
func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reset wipes the store and reinitializes the id counters.
// Destructive - ephemeral/offline use only.
func (lp *LaunchPad) Reset(ctx context.Context) error {
	return lp.store.Reset(ctx)
}
