package gigs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/rs/zerolog/log"

	"agentlyou/internal/store"
	"agentlyou/shared/go/models"
)

// Store defines persistence operations for gigs.
type Store interface {
	CreateGig(ctx context.Context, gig *models.Gig) (*models.Gig, error)
	GetGig(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	ListGigsByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Gig, error)
	UpdateGig(ctx context.Context, gig *models.Gig, editable []models.GigStatus) (*models.Gig, error)
	TransitionGigStatus(ctx context.Context, id uuid.UUID, from, to models.GigStatus, agentID *uuid.UUID) (*models.Gig, error)
}

// PlaceRegistry resolves venue payloads into canonical venue rows.
type PlaceRegistry interface {
	ResolveVenue(ctx context.Context, in models.VenueInput) (*models.Venue, error)
}

// Service coordinates the gig lifecycle.
type Service interface {
	Create(ctx context.Context, actor models.Actor, payload models.GigPayload) (*models.Gig, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
	ListByClient(ctx context.Context, actor models.Actor) ([]*models.Gig, error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, payload models.GigPayload) (*models.Gig, error)
	Publish(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
	Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
	ConfirmAgent(ctx context.Context, id uuid.UUID, agent models.Actor) (*models.Gig, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

type service struct {
	store  Store
	places PlaceRegistry
	clock  clock.Clock
}

// New constructs a gigs Service. A nil clock means the wall clock.
func New(store Store, places PlaceRegistry, clk clock.Clock) Service {
	if clk == nil {
		clk = clock.WallClock
	}
	return &service{store: store, places: places, clock: clk}
}

func (s *service) Create(ctx context.Context, actor models.Actor, payload models.GigPayload) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !actor.IsClient() {
		return nil, ErrNotClient
	}

	status := models.GigStatusDraft
	if payload.Status.Set {
		status = payload.Status.Value
	}

	f := Fields{Timezone: defaultTZ, Labels: []string{}}
	f.apply(payload)
	if f.Timezone == "" {
		f.Timezone = defaultTZ
	}

	errs := &FieldValidationError{}
	errs.Merge(Validate(f, s.clock.Now()))
	// A missing field reports only that it is required.
	for field, msgs := range requireForCreate(payload).Fields {
		delete(errs.Fields, field)
		for _, msg := range msgs {
			errs.Add(field, msg)
		}
	}
	if status != models.GigStatusDraft && status != models.GigStatusPublished {
		errs.Add("status", MsgStatusAtCreate)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	gig := &models.Gig{
		Title:         f.Title,
		Description:   f.Description,
		Labels:        f.Labels,
		LocationType:  f.LocationType,
		StartDatetime: f.StartDatetime,
		EndDatetime:   f.EndDatetime,
		Timezone:      f.Timezone,
		Compensation:  f.Compensation,
		Status:        status,
		ClientID:      actor.ID,
	}
	if f.Venue != nil {
		venue, err := s.places.ResolveVenue(ctx, *f.Venue)
		if err != nil {
			return nil, fmt.Errorf("create gig: %w", err)
		}
		gig.Venue = venue
		gig.VenueID = &venue.ID
	}

	created, err := s.store.CreateGig(ctx, gig)
	if err != nil {
		return nil, fmt.Errorf("create gig: %w", err)
	}

	log.Info().
		Str("gig_id", created.ID.String()).
		Str("client_id", actor.ID.String()).
		Str("status", string(created.Status)).
		Msg("gig created")
	return created, nil
}

// Get returns a gig. Drafts are visible to their owner only.
func (s *service) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gig, err := s.store.GetGig(ctx, id)
	if err != nil {
		return nil, err
	}
	if gig.Status == models.GigStatusDraft && gig.ClientID != actor.ID {
		return nil, store.ErrGigNotFound
	}
	return gig, nil
}

func (s *service) ListByClient(ctx context.Context, actor models.Actor) ([]*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !actor.IsClient() {
		return nil, ErrNotClient
	}
	gigs, err := s.store.ListGigsByClient(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if gigs == nil {
		gigs = []*models.Gig{}
	}
	return gigs, nil
}

// Update merges the fields present in payload into the gig. Status in the
// payload is ignored.
func (s *service) Update(ctx context.Context, actor models.Actor, id uuid.UUID, payload models.GigPayload) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gig, err := s.ownedGig(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !IsEditable(gig.Status) {
		return nil, &NotEditableError{Status: gig.Status}
	}

	f := fieldsFromGig(gig)
	f.apply(payload)
	if err := Validate(f, s.clock.Now()); err != nil {
		return nil, err
	}

	updated := *gig
	updated.Title = f.Title
	updated.Description = f.Description
	updated.Labels = f.Labels
	updated.LocationType = f.LocationType
	updated.StartDatetime = f.StartDatetime
	updated.EndDatetime = f.EndDatetime
	updated.Timezone = f.Timezone
	updated.Compensation = f.Compensation

	switch {
	case f.Venue == nil:
		updated.Venue, updated.VenueID = nil, nil
	case gig.Venue == nil || gig.Venue.Input() != *f.Venue:
		venue, err := s.places.ResolveVenue(ctx, *f.Venue)
		if err != nil {
			return nil, fmt.Errorf("update gig: %w", err)
		}
		updated.Venue = venue
		updated.VenueID = &venue.ID
	}

	saved, err := s.store.UpdateGig(ctx, &updated, EditableStatuses)
	if errors.Is(err, store.ErrStatusConflict) {
		current, getErr := s.store.GetGig(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &NotEditableError{Status: current.Status}
	}
	if err != nil {
		return nil, fmt.Errorf("update gig: %w", err)
	}

	log.Info().
		Str("gig_id", saved.ID.String()).
		Str("client_id", actor.ID.String()).
		Msg("gig updated")
	return saved, nil
}

// Publish moves a draft to published after checking the schedule again.
func (s *service) Publish(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gig, err := s.ownedGig(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(gig.Status, models.GigStatusPublished); err != nil {
		return nil, err
	}

	errs := &FieldValidationError{}
	errs.Merge(ValidateSchedule(gig.StartDatetime, gig.EndDatetime, s.clock.Now()))
	errs.Merge(ValidateLocation(gig.LocationType, gig.VenueID != nil))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.transition(ctx, gig, models.GigStatusPublished, nil)
}

// Cancel moves a draft or published gig to cancelled.
func (s *service) Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gig, err := s.ownedGig(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, gig, models.GigStatusCancelled, nil)
}

// ConfirmAgent assigns agent to a published gig.
func (s *service) ConfirmAgent(ctx context.Context, id uuid.UUID, agent models.Actor) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !agent.IsAgent() {
		return nil, ErrNotAgent
	}
	gig, err := s.store.GetGig(ctx, id)
	if err != nil {
		return nil, err
	}
	agentID := agent.ID
	return s.transition(ctx, gig, models.GigStatusAgentConfirmed, &agentID)
}

// Complete marks an agent-confirmed gig as done. The agent stays assigned.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gig, err := s.store.GetGig(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, gig, models.GigStatusCompleted, gig.AgentID)
}

func (s *service) ownedGig(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error) {
	if !actor.IsClient() {
		return nil, ErrNotClient
	}
	gig, err := s.store.GetGig(ctx, id)
	if err != nil {
		return nil, err
	}
	if gig.ClientID != actor.ID {
		return nil, ErrNotOwner
	}
	return gig, nil
}

// transition performs the status change as a compare-and-swap on the status
// the gig was loaded with. Losing a race is reported against the new status.
func (s *service) transition(ctx context.Context, gig *models.Gig, to models.GigStatus, agentID *uuid.UUID) (*models.Gig, error) {
	if err := checkTransition(gig.Status, to); err != nil {
		return nil, err
	}

	updated, err := s.store.TransitionGigStatus(ctx, gig.ID, gig.Status, to, agentID)
	if errors.Is(err, store.ErrStatusConflict) {
		current, getErr := s.store.GetGig(ctx, gig.ID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &TransitionError{Target: to, Required: sourcesOf(to), Actual: current.Status}
	}
	if err != nil {
		return nil, fmt.Errorf("transition gig: %w", err)
	}

	log.Info().
		Str("gig_id", updated.ID.String()).
		Str("from", string(gig.Status)).
		Str("to", string(to)).
		Msg("gig status changed")
	return updated, nil
}

func checkTransition(from, to models.GigStatus) error {
	if IsTransitionAllowed(from, to) {
		return nil
	}
	return &TransitionError{Target: to, Required: sourcesOf(to), Actual: from}
}
