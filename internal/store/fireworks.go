package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// GetFirework retrieves a single firework by id.
// Returns NotFoundError if no row exists.
func (s *Store) GetFirework(ctx context.Context, id int64) (*model.Firework, error) {
	var rec model.FireworkRecord
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT fw_id, state, data FROM fireworks WHERE fw_id = ?
	`, id).Scan(&rec.ID, &rec.State, &data)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindFirework, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get firework %d: %w", id, err)
	}
	rec.Data = []byte(data)

	fw, err := model.FireworkFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("get firework %d: %w", id, err)
	}
	return fw, nil
}

// GetFireworks retrieves fireworks by id. Every requested id must
// exist; a missing row returns NotFoundError.
func (s *Store) GetFireworks(ctx context.Context, ids []int64) ([]*model.Firework, error) {
	if len(ids) == 0 {
		return []*model.Firework{}, nil
	}

	placeholders := make([]byte, 0, len(ids)*2-1)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fw_id, state, data FROM fireworks
		WHERE fw_id IN (`+string(placeholders)+`)
		ORDER BY fw_id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("get fireworks: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*model.Firework, len(ids))
	for rows.Next() {
		var rec model.FireworkRecord
		var data string
		if err := rows.Scan(&rec.ID, &rec.State, &data); err != nil {
			return nil, fmt.Errorf("scan firework: %w", err)
		}
		rec.Data = []byte(data)
		fw, err := model.FireworkFromRecord(rec)
		if err != nil {
			return nil, err
		}
		byID[fw.ID] = fw
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fireworks: %w", err)
	}

	out := make([]*model.Firework, len(ids))
	for i, id := range ids {
		fw, ok := byID[id]
		if !ok {
			return nil, &NotFoundError{Kind: KindFirework, ID: id}
		}
		out[i] = fw
	}
	return out, nil
}

// FireworkIDsByState returns the ids of every firework in the given
// state, ascending. Ascending id order is the default checkout
// selection order (insertion order).
func (s *Store) FireworkIDsByState(ctx context.Context, state model.State) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fw_id FROM fireworks WHERE state = ? ORDER BY fw_id ASC
	`, string(state))
	if err != nil {
		return nil, fmt.Errorf("query fireworks by state: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan firework id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firework ids: %w", err)
	}

	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// upsertFireworkTx inserts or fully overwrites one firework row.
func upsertFireworkTx(ctx context.Context, tx *sql.Tx, fw *model.Firework) error {
	rec, err := fw.ToRecord()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fireworks (fw_id, state, data)
		VALUES (?, ?, ?)
		ON CONFLICT(fw_id) DO UPDATE SET state = excluded.state, data = excluded.data
	`, rec.ID, rec.State, string(rec.Data))
	if err != nil {
		return fmt.Errorf("upsert firework %d: %w", rec.ID, err)
	}
	return nil
}

// PutFirework inserts or fully overwrites one firework row outside any
// composite operation. Lifecycle flips (pause, defuse) that touch a
// single firework use this.
func (s *Store) PutFirework(ctx context.Context, fw *model.Firework) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put firework: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsertFireworkTx(ctx, tx, fw); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put firework: commit: %w", err)
	}
	return nil
}
