package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/sparkpad/internal/model"
)

// openTestStore creates a store backed by a temp file, closed at test
// cleanup.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestWorkflow writes a workflow with the given id whose members
// carry the given firework ids, all READY and unlinked.
func insertTestWorkflow(t *testing.T, s *Store, wfID int64, fwIDs []int64) {
	t.Helper()

	fws := make([]*model.Firework, len(fwIDs))
	for i, id := range fwIDs {
		fw := model.NewFirework(id, fmt.Sprintf("fw-%d", id), nil)
		fw.State = model.StateReady
		fws[i] = fw
	}

	wf := model.NewWorkflow(fmt.Sprintf("wf-%d", wfID), fws, nil, nil)
	wf.ID = wfID
	for _, fw := range fws {
		wf.FWStates[fw.ID] = fw.State
	}

	if err := s.InsertWorkflow(context.Background(), wf, fws); err != nil {
		t.Fatalf("InsertWorkflow failed: %v", err)
	}
}
