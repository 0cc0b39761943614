package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"agentlyou/shared/go/models"
)

// ErrGigNotFound indicates no gig has the requested id.
var ErrGigNotFound = errors.New("gig not found")

const gigSelect = `
	SELECT
		g.id, g.title, g.description, g.labels, g.location_type, g.venue_id,
		g.start_datetime, g.end_datetime, g.timezone, g.compensation, g.status,
		g.client_id, g.agent_id, g.created_at, g.updated_at,
		v.place_id, v.name, v.address, v.location_id, v.created_at, v.updated_at,
		l.city, l.state_region, l.country, l.created_at
	FROM gigs g
	LEFT JOIN venues v ON v.id = g.venue_id
	LEFT JOIN locations l ON l.id = v.location_id
`

// CreateGig inserts a new gig. The gig must already be validated; a zero ID is
// replaced with a fresh UUID.
func (s *Store) CreateGig(ctx context.Context, gig *models.Gig) (*models.Gig, error) {
	if gig == nil {
		return nil, errors.New("gig is required")
	}
	if gig.ID == uuid.Nil {
		gig.ID = uuid.New()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO gigs (id, title, description, labels, location_type, venue_id,
		                  start_datetime, end_datetime, timezone, compensation, status, client_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`,
		gig.ID, gig.Title, gig.Description, pq.Array(labelsOrEmpty(gig.Labels)), string(gig.LocationType),
		nullableInt64(gig.VenueID), gig.StartDatetime, gig.EndDatetime, gig.Timezone,
		gig.Compensation, string(gig.Status), gig.ClientID,
	).Scan(&gig.CreatedAt, &gig.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert gig: %w", err)
	}

	gig.AgentID = nil
	return gig, nil
}

// GetGig retrieves a gig with its venue and location.
func (s *Store) GetGig(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	gig, err := scanGig(s.db.QueryRowContext(ctx, gigSelect+` WHERE g.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get gig: %w", err)
	}
	return gig, nil
}

// ListGigsByClient returns the gigs posted by a client, soonest first.
func (s *Store) ListGigsByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Gig, error) {
	rows, err := s.db.QueryContext(ctx, gigSelect+`
		WHERE g.client_id = $1
		ORDER BY g.start_datetime ASC, g.id ASC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()

	var gigs []*models.Gig
	for rows.Next() {
		gig, err := scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gig: %w", err)
		}
		gigs = append(gigs, gig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gigs: %w", err)
	}
	return gigs, nil
}

// UpdateGig replaces the editable fields of a gig, but only while its status is
// one of editable. Status, client and agent are never written here. When the
// guard fails the result is ErrGigNotFound or ErrStatusConflict.
func (s *Store) UpdateGig(ctx context.Context, gig *models.Gig, editable []models.GigStatus) (*models.Gig, error) {
	statuses := make([]string, len(editable))
	for i, st := range editable {
		statuses[i] = string(st)
	}

	var status string
	err := s.db.QueryRowContext(ctx, `
		UPDATE gigs
		SET title = $1, description = $2, labels = $3, location_type = $4, venue_id = $5,
		    start_datetime = $6, end_datetime = $7, timezone = $8, compensation = $9,
		    updated_at = NOW()
		WHERE id = $10 AND status = ANY($11)
		RETURNING status, updated_at
	`,
		gig.Title, gig.Description, pq.Array(labelsOrEmpty(gig.Labels)), string(gig.LocationType),
		nullableInt64(gig.VenueID), gig.StartDatetime, gig.EndDatetime, gig.Timezone, gig.Compensation,
		gig.ID, pq.Array(statuses),
	).Scan(&status, &gig.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrConflict(ctx, gig.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update gig: %w", err)
	}
	gig.Status = models.GigStatus(status)
	return gig, nil
}

// TransitionGigStatus moves a gig from one status to another as a single
// compare-and-swap, sets agent_id to agentID and returns the reloaded gig.
func (s *Store) TransitionGigStatus(ctx context.Context, id uuid.UUID, from, to models.GigStatus, agentID *uuid.UUID) (*models.Gig, error) {
	var agent uuid.NullUUID
	if agentID != nil {
		agent = uuid.NullUUID{UUID: *agentID, Valid: true}
	}

	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		UPDATE gigs
		SET status = $1, agent_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING updated_at
	`, string(to), agent, id, string(from)).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("transition gig: %w", err)
	}

	return s.GetGig(ctx, id)
}

func (s *Store) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM gigs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check gig: %w", err)
	}
	if !exists {
		return ErrGigNotFound
	}
	return ErrStatusConflict
}

func scanGig(row rowScanner) (*models.Gig, error) {
	var (
		g            models.Gig
		venueID      sql.NullInt64
		agentID      uuid.NullUUID
		locationType string
		status       string

		placeID, venueName, venueAddress sql.NullString
		locationID                       sql.NullInt64
		venueCreated, venueUpdated       sql.NullTime

		city, stateRegion, country sql.NullString
		locationCreated            sql.NullTime
	)

	if err := row.Scan(
		&g.ID, &g.Title, &g.Description, pq.Array(&g.Labels), &locationType, &venueID,
		&g.StartDatetime, &g.EndDatetime, &g.Timezone, &g.Compensation, &status,
		&g.ClientID, &agentID, &g.CreatedAt, &g.UpdatedAt,
		&placeID, &venueName, &venueAddress, &locationID, &venueCreated, &venueUpdated,
		&city, &stateRegion, &country, &locationCreated,
	); err != nil {
		return nil, err
	}

	g.LocationType = models.LocationType(locationType)
	g.Status = models.GigStatus(status)
	if g.Labels == nil {
		g.Labels = []string{}
	}
	if agentID.Valid {
		id := agentID.UUID
		g.AgentID = &id
	}
	if venueID.Valid {
		id := venueID.Int64
		g.VenueID = &id
		g.Venue = &models.Venue{
			ID:         id,
			PlaceID:    placeID.String,
			Name:       venueName.String,
			Address:    venueAddress.String,
			LocationID: locationID.Int64,
			CreatedAt:  venueCreated.Time,
			UpdatedAt:  venueUpdated.Time,
			Location: &models.Location{
				ID:          locationID.Int64,
				City:        city.String,
				StateRegion: stateRegion.String,
				Country:     country.String,
				CreatedAt:   locationCreated.Time,
			},
		}
	}
	return &g, nil
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func labelsOrEmpty(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	return labels
}
