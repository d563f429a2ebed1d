package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// ClaimFirework atomically transitions a firework from the expected
// state and records its new launch in one transaction.
//
// The firework's state is re-read inside the transaction; if it no
// longer equals expect, another caller claimed it first and the
// transaction aborts with ErrClaimLost, leaving nothing written. The
// caller retries against a freshly selected firework. Because the
// re-read, the firework write and the launch insert commit as one unit,
// no other caller can observe the intermediate RESERVED step.
//
// fw must already carry the claimed state and the appended launch id;
// launch must carry its allocator-assigned id.
func (s *Store) ClaimFirework(ctx context.Context, fw *model.Firework, expect model.State, launch *model.Launch) error {
	fwRec, err := fw.ToRecord()
	if err != nil {
		return fmt.Errorf("claim firework: %w", err)
	}
	launchRec, err := launch.ToRecord()
	if err != nil {
		return fmt.Errorf("claim firework: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("claim firework: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var current string
	err = tx.QueryRowContext(ctx, `
		SELECT state FROM fireworks WHERE fw_id = ?
	`, fw.ID).Scan(&current)
	if err == sql.ErrNoRows {
		return &NotFoundError{Kind: KindFirework, ID: fw.ID}
	}
	if err != nil {
		return fmt.Errorf("claim firework %d: read state: %w", fw.ID, err)
	}

	if current != string(expect) {
		return fmt.Errorf("claim firework %d: state is %s, expected %s: %w",
			fw.ID, current, expect, ErrClaimLost)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE fireworks SET state = ?, data = ? WHERE fw_id = ?
	`, fwRec.State, string(fwRec.Data), fwRec.ID)
	if err != nil {
		return fmt.Errorf("claim firework %d: update: %w", fw.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO launches (launch_id, fw_id, state, data)
		VALUES (?, ?, ?, ?)
	`, launchRec.ID, launchRec.FWID, launchRec.State, string(launchRec.Data))
	if err != nil {
		return fmt.Errorf("claim firework %d: insert launch: %w", fw.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("claim firework %d: commit: %w", fw.ID, err)
	}
	return nil
}

// FinishLaunch persists a launch's terminal outcome together with its
// firework's new state as one transaction. Both rows must already
// exist; the firework carries the final state and any spec mutations,
// the launch carries COMPLETED or FIZZLED.
func (s *Store) FinishLaunch(ctx context.Context, fw *model.Firework, launch *model.Launch) error {
	fwRec, err := fw.ToRecord()
	if err != nil {
		return fmt.Errorf("finish launch: %w", err)
	}
	launchRec, err := launch.ToRecord()
	if err != nil {
		return fmt.Errorf("finish launch: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("finish launch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE fireworks SET state = ?, data = ? WHERE fw_id = ?
	`, fwRec.State, string(fwRec.Data), fwRec.ID)
	if err != nil {
		return fmt.Errorf("finish launch %d: update firework: %w", launch.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: KindFirework, ID: fw.ID}
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE launches SET state = ?, data = ? WHERE launch_id = ?
	`, launchRec.State, string(launchRec.Data), launchRec.ID)
	if err != nil {
		return fmt.Errorf("finish launch %d: update launch: %w", launch.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Kind: KindLaunch, ID: launch.ID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("finish launch %d: commit: %w", launch.ID, err)
	}
	return nil
}

// ReclaimLaunch marks a lost launch FIZZLED and, when its firework is
// still RUNNING, returns the firework to READY, all in one transaction.
// Both writes are guarded on the RUNNING state inside the transaction:
// a worker that finished the launch after the caller's scan keeps its
// terminal record untouched. Reports whether the launch was rewritten
// and whether the firework was released.
//
// launch must already carry the FIZZLED state; fw must carry READY.
func (s *Store) ReclaimLaunch(ctx context.Context, launch *model.Launch, fw *model.Firework) (launchFizzled, fwReleased bool, err error) {
	launchRec, err := launch.ToRecord()
	if err != nil {
		return false, false, fmt.Errorf("reclaim launch: %w", err)
	}
	fwRec, err := fw.ToRecord()
	if err != nil {
		return false, false, fmt.Errorf("reclaim launch: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("reclaim launch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE launches SET state = ?, data = ? WHERE launch_id = ? AND state = ?
	`, launchRec.State, string(launchRec.Data), launchRec.ID, string(model.StateRunning))
	if err != nil {
		return false, false, fmt.Errorf("reclaim launch %d: update launch: %w", launch.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The worker finished first; nothing to reclaim.
		return false, false, nil
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE fireworks SET state = ?, data = ? WHERE fw_id = ? AND state = ?
	`, fwRec.State, string(fwRec.Data), fwRec.ID, string(model.StateRunning))
	if err != nil {
		return false, false, fmt.Errorf("reclaim launch %d: update firework: %w", launch.ID, err)
	}
	released := false
	if n, _ := res.RowsAffected(); n > 0 {
		released = true
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("reclaim launch %d: commit: %w", launch.ID, err)
	}
	return true, released, nil
}
