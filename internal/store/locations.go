package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agentlyou/shared/go/models"
)

// ErrLocationNotFound indicates no location row has the requested id.
var ErrLocationNotFound = errors.New("location not found")

// ResolveLocation returns the canonical row for the (city, state_region, country)
// triple, inserting it first when it does not exist yet. The insert and the
// lookup rely on the locations_natural_key unique index, so racing callers
// converge on one row. Values must already be normalized.
func (s *Store) ResolveLocation(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	var loc models.Location
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO locations (city, state_region, country)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT locations_natural_key DO NOTHING
		RETURNING id, city, state_region, country, created_at
	`, in.City, in.StateRegion, in.Country).Scan(&loc.ID, &loc.City, &loc.StateRegion, &loc.Country, &loc.CreatedAt)
	if err == nil {
		return &loc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert location: %w", err)
	}

	// Conflict: another writer owns the row.
	err = s.db.QueryRowContext(ctx, `
		SELECT id, city, state_region, country, created_at
		FROM locations
		WHERE city = $1 AND state_region = $2 AND country = $3
	`, in.City, in.StateRegion, in.Country).Scan(&loc.ID, &loc.City, &loc.StateRegion, &loc.Country, &loc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResolveConflict
	}
	if err != nil {
		return nil, fmt.Errorf("select location: %w", err)
	}
	return &loc, nil
}

// GetLocation retrieves a single location by ID.
func (s *Store) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	var loc models.Location
	err := s.db.QueryRowContext(ctx, `
		SELECT id, city, state_region, country, created_at
		FROM locations
		WHERE id = $1
	`, id).Scan(&loc.ID, &loc.City, &loc.StateRegion, &loc.Country, &loc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}
