package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sparkpad/internal/model"
)

// GetLaunch retrieves a single launch by id.
// Returns NotFoundError if no row exists.
func (s *Store) GetLaunch(ctx context.Context, id int64) (*model.Launch, error) {
	var rec model.LaunchRecord
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT launch_id, fw_id, state, data FROM launches WHERE launch_id = ?
	`, id).Scan(&rec.ID, &rec.FWID, &rec.State, &data)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: KindLaunch, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get launch %d: %w", id, err)
	}
	rec.Data = []byte(data)

	l, err := model.LaunchFromRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("get launch %d: %w", id, err)
	}
	return l, nil
}

// PutLaunch inserts or fully overwrites one launch row. Launches are
// structurally immutable; writes only advance state and heartbeat.
func (s *Store) PutLaunch(ctx context.Context, l *model.Launch) error {
	rec, err := l.ToRecord()
	if err != nil {
		return fmt.Errorf("put launch: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO launches (launch_id, fw_id, state, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(launch_id) DO UPDATE SET state = excluded.state, data = excluded.data
	`, rec.ID, rec.FWID, rec.State, string(rec.Data))
	if err != nil {
		return fmt.Errorf("put launch %d: %w", rec.ID, err)
	}
	return nil
}

// RunningLaunches returns every launch currently in RUNNING state,
// ordered by launch id. Lost-run detection scans these for stale
// heartbeats.
func (s *Store) RunningLaunches(ctx context.Context) ([]*model.Launch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT launch_id, fw_id, state, data FROM launches
		WHERE state = ?
		ORDER BY launch_id ASC
	`, string(model.StateRunning))
	if err != nil {
		return nil, fmt.Errorf("query running launches: %w", err)
	}
	defer rows.Close()

	var launches []*model.Launch
	for rows.Next() {
		var rec model.LaunchRecord
		var data string
		if err := rows.Scan(&rec.ID, &rec.FWID, &rec.State, &data); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		rec.Data = []byte(data)
		l, err := model.LaunchFromRecord(rec)
		if err != nil {
			return nil, err
		}
		launches = append(launches, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}

	if launches == nil {
		launches = []*model.Launch{}
	}
	return launches, nil
}
