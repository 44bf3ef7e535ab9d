package store

import (
	"context"
	"database/sql"
	"fmt"
)

const profileColumns = `id, level, total_score, total_discoveries, flow_streak,
	discovered_symbols, session_data, created_at, updated_at`

// GetProfile returns the profile for id, inserting the default row on first
// read.
func (s *Store) GetProfile(ctx context.Context, id int64) (Profile, error) {
	if id <= 0 {
		return Profile{}, &ValidationError{Field: "id", Message: "must be positive"}
	}

	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, now, now)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %d: %w", id, err)
	}

	p, err := readProfile(ctx, s.db, id)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %d: %w", id, err)
	}
	return p, nil
}

// UpdateProfile applies patch inside a transaction and returns the stored
// row.
func (s *Store) UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (Profile, error) {
	if err := patch.validate(); err != nil {
		return Profile{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile %d: begin: %w", id, err)
	}
	defer tx.Rollback()

	p, err := readProfile(ctx, tx, id)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile %d: %w", id, err)
	}
	patch.apply(&p, s.now().UTC())

	symbols, err := marshalStrings(p.DiscoveredSymbols)
	if err != nil {
		return Profile{}, err
	}
	data, err := marshalSessionData(p.SessionData)
	if err != nil {
		return Profile{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE profiles
		SET level = ?, total_score = ?, total_discoveries = ?, flow_streak = ?,
		    discovered_symbols = ?, session_data = ?, updated_at = ?
		WHERE id = ?
	`, p.Level, p.TotalScore, p.TotalDiscoveries, p.FlowStreak,
		symbols, data, formatTime(p.UpdatedAt), id)
	if err != nil {
		return Profile{}, fmt.Errorf("update profile %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, fmt.Errorf("update profile %d: commit: %w", id, err)
	}
	return p, nil
}

func readProfile(ctx context.Context, q querier, id int64) (Profile, error) {
	row := q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)

	var (
		p                  Profile
		symbols, data      string
		createdAt, updated string
	)
	err := row.Scan(&p.ID, &p.Level, &p.TotalScore, &p.TotalDiscoveries, &p.FlowStreak,
		&symbols, &data, &createdAt, &updated)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}

	if p.DiscoveredSymbols, err = unmarshalStrings(symbols); err != nil {
		return Profile{}, err
	}
	if p.SessionData, err = unmarshalSessionData(data); err != nil {
		return Profile{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return Profile{}, err
	}
	return p, nil
}
