package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// GetWorkflow retrieves a single workflow by id.
// Returns NotFoundError if no row exists.
func (s *Store) GetWorkflow(ctx context.Context, id int64) (*model.Workflow, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM workflows WHERE wf_id = ?
	`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindWorkflow, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %d: %w", id, err)
	}

	wf, err := model.WorkflowFromRecord(model.WorkflowRecord{ID: id, Data: []byte(data)})
	if err != nil {
		return nil, fmt.Errorf("get workflow %d: %w", id, err)
	}
	return wf, nil
}

// WorkflowIDByFirework resolves the owning workflow of a firework
// through the membership index.
func (s *Store) WorkflowIDByFirework(ctx context.Context, fwID int64) (int64, error) {
	var wfID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT wf_id FROM mapping WHERE fw_id = ?
	`, fwID).Scan(&wfID)
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: KindMapping, ID: fwID}
	}
	if err != nil {
		return 0, fmt.Errorf("resolve workflow for firework %d: %w", fwID, err)
	}
	return wfID, nil
}

// MappingForWorkflow returns the firework ids the membership index
// assigns to a workflow, ascending. Used for consistency checks against
// the workflow payload.
func (s *Store) MappingForWorkflow(ctx context.Context, wfID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fw_id FROM mapping WHERE wf_id = ? ORDER BY fw_id ASC
	`, wfID)
	if err != nil {
		return nil, fmt.Errorf("query mapping for workflow %d: %w", wfID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mapping row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping rows: %w", err)
	}

	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// InsertWorkflow atomically writes a workflow payload, the given member
// fireworks, and their membership rows in a single transaction. A crash
// or concurrent read never observes a partially written workflow.
//
// This is the only insertion path: fresh submissions and detour
// extensions of an existing workflow both go through it, which keeps
// the membership-index invariant identical in both cases. The workflow
// payload is replaced wholesale.
func (s *Store) InsertWorkflow(ctx context.Context, wf *model.Workflow, fws []*model.Firework) error {
	wfRec, err := wf.ToRecord()
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert workflow: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Fireworks before mapping rows to satisfy foreign keys
	for _, fw := range fws {
		if err := upsertFireworkTx(ctx, tx, fw); err != nil {
			return fmt.Errorf("insert workflow: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workflows (wf_id, data)
		VALUES (?, ?)
		ON CONFLICT(wf_id) DO UPDATE SET data = excluded.data
	`, wfRec.ID, string(wfRec.Data))
	if err != nil {
		return fmt.Errorf("insert workflow %d: %w", wfRec.ID, err)
	}

	for _, fw := range fws {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mapping (fw_id, wf_id)
			VALUES (?, ?)
			ON CONFLICT(fw_id) DO UPDATE SET wf_id = excluded.wf_id
		`, fw.ID, wfRec.ID)
		if err != nil {
			return fmt.Errorf("insert mapping %d→%d: %w", fw.ID, wfRec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert workflow: commit: %w", err)
	}
	return nil
}

// ApplyRefresh persists the outcome of one refresh pass: the changed
// fireworks and the workflow payload (carrying the rewritten fw_states
// cache and updated_on timestamp) in one transaction.
func (s *Store) ApplyRefresh(ctx context.Context, wf *model.Workflow, changed []*model.Firework) error {
	wfRec, err := wf.ToRecord()
	if err != nil {
		return fmt.Errorf("apply refresh: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply refresh: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, fw := range changed {
		if err := upsertFireworkTx(ctx, tx, fw); err != nil {
			return fmt.Errorf("apply refresh: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE workflows SET data = ? WHERE wf_id = ?
	`, string(wfRec.Data), wfRec.ID)
	if err != nil {
		return fmt.Errorf("apply refresh: update workflow %d: %w", wfRec.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply refresh: rows affected: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: KindWorkflow, ID: wfRec.ID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply refresh: commit: %w", err)
	}
	return nil
}
