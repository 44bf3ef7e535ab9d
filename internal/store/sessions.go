package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSession opens a session starting now. The profile must exist.
func (s *Store) CreateSession(ctx context.Context, ns NewSession) (Session, error) {
	if err := ns.validate(); err != nil {
		return Session{}, err
	}

	ok, err := profileExists(ctx, s.db, ns.ProfileID)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return Session{}, fmt.Errorf("create session: profile %d: %w", ns.ProfileID, ErrNotFound)
	}

	start := s.now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (profile_id, start_time) VALUES (?, ?)
	`, ns.ProfileID, formatTime(start))
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, fmt.Errorf("create session: last insert id: %w", err)
	}

	return Session{ID: id, ProfileID: ns.ProfileID, StartTime: start}, nil
}

// UpdateSession applies patch inside a transaction.
func (s *Store) UpdateSession(ctx context.Context, id int64, patch SessionPatch) (Session, error) {
	if err := patch.validate(); err != nil {
		return Session{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("update session %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, fmt.Errorf("update session %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("update session %d: %w", id, err)
	}
	patch.apply(&sess)

	var duration sql.NullInt64
	if sess.Duration != nil {
		duration = sql.NullInt64{Int64: int64(*sess.Duration), Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE sessions
		SET end_time = ?, duration = ?, discovery_count = ?, final_score = ?
		WHERE id = ?
	`, formatNullTime(sess.EndTime), duration, sess.DiscoveryCount, sess.FinalScore, id)
	if err != nil {
		return Session{}, fmt.Errorf("update session %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("update session %d: commit: %w", id, err)
	}
	if sess.EndTime != nil {
		t := sess.EndTime.UTC()
		sess.EndTime = &t
	}
	return sess, nil
}

// ListSessions returns the profile's sessions newest first.
func (s *Store) ListSessions(ctx context.Context, profileID int64) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE profile_id = ?
		ORDER BY start_time DESC, id DESC
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

const sessionColumns = `id, profile_id, start_time, end_time, duration, discovery_count, final_score`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var (
		sess     Session
		start    string
		end      sql.NullString
		duration sql.NullInt64
	)
	if err := r.Scan(&sess.ID, &sess.ProfileID, &start, &end, &duration,
		&sess.DiscoveryCount, &sess.FinalScore); err != nil {
		return Session{}, err
	}

	var err error
	if sess.StartTime, err = parseTime(start); err != nil {
		return Session{}, err
	}
	if sess.EndTime, err = parseNullTime(end); err != nil {
		return Session{}, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		sess.Duration = &d
	}
	return sess, nil
}
