package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// Counter names, one per entity class. Counters start at 1.
const (
	CounterFirework = "next_fw_id"
	CounterLaunch   = "next_launch_id"
	CounterWorkflow = "next_workflow_id"
)

// NextID reserves quantity consecutive ids from the named counter and
// returns the first. The caller owns [first, first+quantity); no other
// caller ever receives an overlapping range.
//
// The read-then-advance runs in a single transaction on the store's
// single-writer connection. A lost update here would corrupt the whole
// identifier space, so there is no non-transactional fast path.
func (s *Store) NextID(ctx context.Context, counter string, quantity int64) (int64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("next id: quantity must be positive, got %d", quantity)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("next id: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var first int64
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE name = ?`, counter).Scan(&first)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("next id: unknown counter %q", counter)
	}
	if err != nil {
		return 0, fmt.Errorf("next id: read counter %q: %w", counter, err)
	}

	if first > math.MaxInt64-quantity {
		return 0, fmt.Errorf("next id: counter %q: %w", counter, ErrCounterExhausted)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE meta SET value = ? WHERE name = ?`, first+quantity, counter); err != nil {
		return 0, fmt.Errorf("next id: advance counter %q: %w", counter, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("next id: commit: %w", err)
	}

	return first, nil
}
