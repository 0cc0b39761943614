package places

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"agentlyou/internal/store"
	"agentlyou/shared/go/models"
)

var (
	// ErrIncompleteLocation is returned when city or country is blank after normalization.
	ErrIncompleteLocation = errors.New("location requires city and country")
	// ErrIncompleteVenue is returned when the venue has no place id or name.
	ErrIncompleteVenue = errors.New("venue requires place id and name")
)

// Store defines the atomic get-or-create primitives the registry builds on.
type Store interface {
	ResolveLocation(ctx context.Context, in models.LocationInput) (*models.Location, error)
	UpsertVenue(ctx context.Context, placeID, name, address string, locationID int64) (*models.Venue, error)
}

// Cache is an optional read-through cache for canonical locations.
type Cache interface {
	Get(ctx context.Context, in models.LocationInput) (*models.Location, bool, error)
	Set(ctx context.Context, loc *models.Location) error
	Invalidate(ctx context.Context, in models.LocationInput) error
}

// Registry resolves candidate places into one canonical row per natural key.
type Registry interface {
	ResolveLocation(ctx context.Context, in models.LocationInput) (*models.Location, error)
	ResolveVenue(ctx context.Context, in models.VenueInput) (*models.Venue, error)
}

type registry struct {
	store Store
	cache Cache
}

// New constructs a Registry. cache may be nil.
func New(store Store, cache Cache) Registry {
	return &registry{store: store, cache: cache}
}

// ResolveLocation normalizes the triple and returns its canonical row,
// creating it on first use. A lost insert/select race is retried once.
func (r *registry) ResolveLocation(ctx context.Context, in models.LocationInput) (*models.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := NormalizeLocation(in)
	if key.City == "" || key.Country == "" {
		return nil, ErrIncompleteLocation
	}

	if loc := r.cached(ctx, key); loc != nil {
		return loc, nil
	}

	loc, err := r.store.ResolveLocation(ctx, key)
	if errors.Is(err, store.ErrResolveConflict) {
		log.Warn().
			Str("city", key.City).
			Str("country", key.Country).
			Msg("location resolve lost a race, retrying")
		loc, err = r.store.ResolveLocation(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve location: %w", err)
	}

	r.remember(ctx, loc)
	return loc, nil
}

// ResolveVenue resolves the nested location first, then upserts the venue by
// place id. Name, address and location of an existing venue are replaced.
func (r *registry) ResolveVenue(ctx context.Context, in models.VenueInput) (*models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := NormalizeVenue(in)
	if v.PlaceID == "" || v.Name == "" {
		return nil, ErrIncompleteVenue
	}

	for attempt := 0; ; attempt++ {
		loc, err := r.ResolveLocation(ctx, v.Location)
		if err != nil {
			return nil, err
		}

		venue, err := r.store.UpsertVenue(ctx, v.PlaceID, v.Name, v.Address, loc.ID)
		if errors.Is(err, store.ErrResolveConflict) && attempt == 0 {
			// The location id we used no longer exists; forget it and resolve again.
			log.Warn().
				Str("place_id", v.PlaceID).
				Int64("location_id", loc.ID).
				Msg("venue location vanished during resolve, retrying")
			r.forget(ctx, v.Location)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve venue: %w", err)
		}

		venue.Location = loc
		return venue, nil
	}
}

func (r *registry) cached(ctx context.Context, key models.LocationInput) *models.Location {
	if r.cache == nil {
		return nil
	}
	loc, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("location cache read failed")
		return nil
	}
	if !ok {
		return nil
	}
	return loc
}

func (r *registry) remember(ctx context.Context, loc *models.Location) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, loc); err != nil {
		log.Warn().Err(err).Int64("location_id", loc.ID).Msg("location cache write failed")
	}
}

func (r *registry) forget(ctx context.Context, key models.LocationInput) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, NormalizeLocation(key)); err != nil {
		log.Warn().Err(err).Msg("location cache invalidate failed")
	}
}
