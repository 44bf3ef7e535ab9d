package store

import (
	"context"
	"fmt"
)

// CreateDiscovery appends a discovery record. The profile must exist.
func (s *Store) CreateDiscovery(ctx context.Context, d NewDiscovery) (Discovery, error) {
	if err := d.validate(); err != nil {
		return Discovery{}, err
	}

	ok, err := profileExists(ctx, s.db, d.ProfileID)
	if err != nil {
		return Discovery{}, fmt.Errorf("create discovery: %w", err)
	}
	if !ok {
		return Discovery{}, fmt.Errorf("create discovery: profile %d: %w", d.ProfileID, ErrNotFound)
	}

	combination, err := marshalStrings(d.Combination)
	if err != nil {
		return Discovery{}, err
	}
	at := s.now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO discoveries (profile_id, symbol_result, combination, points, discovered_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ProfileID, d.SymbolResult, combination, d.Points, formatTime(at))
	if err != nil {
		return Discovery{}, fmt.Errorf("create discovery: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Discovery{}, fmt.Errorf("create discovery: last insert id: %w", err)
	}

	comb := append([]string{}, d.Combination...)
	return Discovery{
		ID:           id,
		ProfileID:    d.ProfileID,
		SymbolResult: d.SymbolResult,
		Combination:  comb,
		Points:       d.Points,
		DiscoveredAt: at,
	}, nil
}

// ListDiscoveries returns the profile's discoveries newest first.
// Returns empty slice (not nil) if there are none.
func (s *Store) ListDiscoveries(ctx context.Context, profileID int64, limit int) ([]Discovery, error) {
	query := `
		SELECT id, profile_id, symbol_result, combination, points, discovered_at
		FROM discoveries
		WHERE profile_id = ?
		ORDER BY discovered_at DESC, id DESC
	`
	args := []any{profileID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	defer rows.Close()

	// Return empty slice (not nil) for consistency
	out := []Discovery{}
	for rows.Next() {
		var (
			d           Discovery
			combination string
			at          string
		)
		if err := rows.Scan(&d.ID, &d.ProfileID, &d.SymbolResult, &combination, &d.Points, &at); err != nil {
			return nil, fmt.Errorf("list discoveries: scan: %w", err)
		}
		if d.Combination, err = unmarshalStrings(combination); err != nil {
			return nil, err
		}
		if d.DiscoveredAt, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	return out, nil
}
