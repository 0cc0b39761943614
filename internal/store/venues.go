package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agentlyou/shared/go/models"
)

// ErrVenueNotFound indicates no venue row has the requested id.
var ErrVenueNotFound = errors.New("venue not found")

// UpsertVenue resolves the venue keyed by its place id. An existing row keeps
// its id and place id; name, address and location are replaced in place.
// A foreign key failure means the location was removed underneath us and is
// reported as ErrResolveConflict so the caller can resolve the location again.
func (s *Store) UpsertVenue(ctx context.Context, placeID, name, address string, locationID int64) (*models.Venue, error) {
	var v models.Venue
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO venues (place_id, name, address, location_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT venues_place_id_key DO UPDATE
		SET name = EXCLUDED.name,
		    address = EXCLUDED.address,
		    location_id = EXCLUDED.location_id,
		    updated_at = CASE
		        WHEN venues.name IS DISTINCT FROM EXCLUDED.name
		          OR venues.address IS DISTINCT FROM EXCLUDED.address
		          OR venues.location_id IS DISTINCT FROM EXCLUDED.location_id
		        THEN NOW() ELSE venues.updated_at END
		RETURNING id, place_id, name, address, location_id, created_at, updated_at
	`, placeID, name, address, locationID).Scan(
		&v.ID, &v.PlaceID, &v.Name, &v.Address, &v.LocationID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrResolveConflict
		}
		return nil, fmt.Errorf("upsert venue: %w", err)
	}
	return &v, nil
}

// GetVenue retrieves a single venue by ID together with its location.
func (s *Store) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	var (
		v   models.Venue
		loc models.Location
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.place_id, v.name, v.address, v.location_id, v.created_at, v.updated_at,
		       l.id, l.city, l.state_region, l.country, l.created_at
		FROM venues v
		INNER JOIN locations l ON l.id = v.location_id
		WHERE v.id = $1
	`, id).Scan(
		&v.ID, &v.PlaceID, &v.Name, &v.Address, &v.LocationID, &v.CreatedAt, &v.UpdatedAt,
		&loc.ID, &loc.City, &loc.StateRegion, &loc.Country, &loc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	v.Location = &loc
	return &v, nil
}
