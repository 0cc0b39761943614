package gigs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock/testclock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentlyou/internal/store"
	"agentlyou/shared/go/models"
)

type fixture struct {
	store  *memStore
	places *fakePlaces
	clock  *testclock.Clock
	svc    Service
	client models.Actor
	agent  models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  newMemStore(),
		places: newFakePlaces(),
		clock:  testclock.NewClock(testNow),
		client: models.Actor{ID: uuid.New(), Capabilities: models.CapabilityClient},
		agent:  models.Actor{ID: uuid.New(), Capabilities: models.CapabilityAgent},
	}
	f.svc = New(f.store, f.places, f.clock)
	return f
}

func virtualPayload() models.GigPayload {
	return models.GigPayload{
		Title:         models.Some("Virtual keynote"),
		Description:   models.Some(strings.Repeat("A forty minute keynote on event logistics. ", 2)),
		Labels:        models.Some([]string{"talk", "online", "talk"}),
		LocationType:  models.Some(models.LocationTypeVirtual),
		StartDatetime: models.Some(testNow.Add(24 * time.Hour)),
		EndDatetime:   models.Some(testNow.Add(26 * time.Hour)),
		Compensation:  models.Some(decimal.RequireFromString("150.50")),
	}
}

func venueInput(placeID string) *models.VenueInput {
	return &models.VenueInput{
		PlaceID: placeID,
		Name:    "The Blue Room",
		Address: "1 Main St",
		Location: models.LocationInput{
			City:        "Austin",
			StateRegion: "Texas",
			Country:     "United States",
		},
	}
}

func physicalPayload(placeID string) models.GigPayload {
	p := virtualPayload()
	p.Title = models.Some("Jazz trio for gallery opening")
	p.LocationType = models.Some(models.LocationTypePhysical)
	p.Venue = models.Some(venueInput(placeID))
	return p
}

func (f *fixture) create(t *testing.T, p models.GigPayload) *models.Gig {
	t.Helper()
	gig, err := f.svc.Create(context.Background(), f.client, p)
	require.NoError(t, err)
	return gig
}

func (f *fixture) withStatus(t *testing.T, status models.GigStatus) *models.Gig {
	t.Helper()
	gig := f.create(t, virtualPayload())
	gig.Status = status
	if status == models.GigStatusAgentConfirmed || status == models.GigStatusCompleted {
		id := f.agent.ID
		gig.AgentID = &id
	}
	f.store.put(*gig)
	return gig
}

func assertVenueMatchesType(t *testing.T, gig *models.Gig) {
	t.Helper()
	if gig.LocationType == models.LocationTypeVirtual {
		assert.Nil(t, gig.Venue)
		assert.Nil(t, gig.VenueID)
	} else {
		assert.NotNil(t, gig.Venue)
		assert.NotNil(t, gig.VenueID)
	}
}

func TestCreateVirtualGigDefaultsToDraft(t *testing.T) {
	f := newFixture(t)

	gig := f.create(t, virtualPayload())

	assert.Equal(t, models.GigStatusDraft, gig.Status)
	assert.Equal(t, f.client.ID, gig.ClientID)
	assert.Nil(t, gig.AgentID)
	assert.Equal(t, "UTC", gig.Timezone)
	assert.Equal(t, []string{"online", "talk"}, gig.Labels)
	assertVenueMatchesType(t, gig)
	assert.Empty(t, f.places.calls)
}

func TestCreateMayPublishImmediately(t *testing.T) {
	f := newFixture(t)
	p := virtualPayload()
	p.Status = models.Some(models.GigStatusPublished)

	gig := f.create(t, p)
	assert.Equal(t, models.GigStatusPublished, gig.Status)
}

func TestCreateRejectsOtherInitialStatuses(t *testing.T) {
	for _, st := range []models.GigStatus{
		models.GigStatusCompleted,
		models.GigStatusAgentConfirmed,
		models.GigStatusCancelled,
		models.GigStatus("bogus"),
	} {
		st := st
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t)
			p := virtualPayload()
			p.Status = models.Some(st)

			_, err := f.svc.Create(context.Background(), f.client, p)
			got := fieldErrors(t, err)
			assert.Equal(t, []string{MsgStatusAtCreate}, got["status"])
		})
	}
}

func TestCreatePhysicalWithoutVenue(t *testing.T) {
	f := newFixture(t)
	p := virtualPayload()
	p.LocationType = models.Some(models.LocationTypePhysical)

	_, err := f.svc.Create(context.Background(), f.client, p)
	got := fieldErrors(t, err)
	assert.Equal(t, []string{"Venue is required for physical gigs."}, got["venue"])
	assert.Empty(t, f.store.gigs)
}

func TestCreateVirtualWithVenue(t *testing.T) {
	f := newFixture(t)
	p := virtualPayload()
	p.Venue = models.Some(venueInput("p1"))

	_, err := f.svc.Create(context.Background(), f.client, p)
	got := fieldErrors(t, err)
	assert.Equal(t, []string{"Venue is not appropriate for virtual gigs."}, got["venue"])
	assert.Empty(t, f.places.calls)
}

func TestCreateReportsMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.client, models.GigPayload{})
	got := fieldErrors(t, err)
	for _, field := range []string{"title", "description", "location_type", "start_datetime", "end_datetime", "compensation"} {
		assert.Equal(t, []string{MsgRequired}, got[field], field)
	}
}

func TestCreateRejectsPastStart(t *testing.T) {
	f := newFixture(t)
	p := virtualPayload()
	p.StartDatetime = models.Some(testNow.Add(-time.Hour))

	_, err := f.svc.Create(context.Background(), f.client, p)
	got := fieldErrors(t, err)
	assert.Equal(t, []string{"Start date and time must be in the future."}, got["start_datetime"])
}

func TestCreateRequiresClientCapability(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.agent, virtualPayload())
	assert.ErrorIs(t, err, ErrNotClient)
}

func TestCreatePhysicalResolvesVenue(t *testing.T) {
	f := newFixture(t)

	gig := f.create(t, physicalPayload("ChIJ-blue"))

	require.NotNil(t, gig.Venue)
	require.NotNil(t, gig.VenueID)
	assert.Equal(t, gig.Venue.ID, *gig.VenueID)
	assert.Equal(t, "ChIJ-blue", gig.Venue.PlaceID)
	require.NotNil(t, gig.Venue.Location)
	assert.Equal(t, "Austin", gig.Venue.Location.City)
	assert.Len(t, f.places.calls, 1)
}

func TestCreateSurfacesRegistryFailure(t *testing.T) {
	f := newFixture(t)
	f.places.err = store.ErrResolveConflict

	_, err := f.svc.Create(context.Background(), f.client, physicalPayload("p"))
	assert.ErrorIs(t, err, store.ErrResolveConflict)
	assert.Empty(t, f.store.gigs)
}

func TestPublishDraft(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	published, err := f.svc.Publish(context.Background(), f.client, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GigStatusPublished, published.Status)
	assert.Nil(t, published.AgentID)
}

func TestPublishRequiresDraft(t *testing.T) {
	for _, st := range []models.GigStatus{
		models.GigStatusPublished,
		models.GigStatusAgentConfirmed,
		models.GigStatusCompleted,
		models.GigStatusCancelled,
	} {
		st := st
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t)
			gig := f.withStatus(t, st)

			_, err := f.svc.Publish(context.Background(), f.client, gig.ID)
			var te *TransitionError
			require.True(t, errors.As(err, &te), "got %v", err)
			assert.Equal(t, []models.GigStatus{models.GigStatusDraft}, te.Required)
			assert.Equal(t, st, te.Actual)
		})
	}
}

func TestPublishRevalidatesSchedule(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	f.clock.Advance(25 * time.Hour)

	_, err := f.svc.Publish(context.Background(), f.client, gig.ID)
	got := fieldErrors(t, err)
	assert.Equal(t, []string{MsgStartInPast}, got["start_datetime"])

	stored, err := f.store.GetGig(context.Background(), gig.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GigStatusDraft, stored.Status)
}

func TestPublishRequiresOwner(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())
	other := models.Actor{ID: uuid.New(), Capabilities: models.CapabilityClient}

	_, err := f.svc.Publish(context.Background(), other, gig.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.svc.Publish(context.Background(), f.agent, gig.ID)
	assert.ErrorIs(t, err, ErrNotClient)
}

func TestPublishUnknownGig(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Publish(context.Background(), f.client, uuid.New())
	assert.ErrorIs(t, err, store.ErrGigNotFound)
}

func TestConcurrentPublishSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Publish(context.Background(), f.client, gig.ID)
			mu.Lock()
			defer mu.Unlock()
			var te *TransitionError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &te):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
}

func TestPublishLosingRaceReportsCurrentStatus(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())
	f.store.beforeWrite = func(g *models.Gig) { g.Status = models.GigStatusCancelled }

	_, err := f.svc.Publish(context.Background(), f.client, gig.ID)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, models.GigStatusCancelled, te.Actual)
}

func TestUpdateIgnoresStatus(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	updated, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		Status: models.Some(models.GigStatusPublished),
		Title:  models.Some("Xylophone recital"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Xylophone recital", updated.Title)
	assert.Equal(t, models.GigStatusDraft, updated.Status)
	assert.Equal(t, gig.Description, updated.Description)
}

func TestUpdateValidatesMergedTitle(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	_, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{Title: models.Some("X")})
	got := fieldErrors(t, err)
	assert.Equal(t, []string{"Ensure this field has at least 3 characters."}, got["title"])
}

func TestUpdatePublishedGigIsAllowed(t *testing.T) {
	f := newFixture(t)
	gig := f.withStatus(t, models.GigStatusPublished)

	updated, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		Compensation: models.Some(decimal.NewFromInt(300)),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(updated.Compensation))
	assert.Equal(t, models.GigStatusPublished, updated.Status)
}

func TestUpdateRejectedOnceLocked(t *testing.T) {
	payloads := map[string]models.GigPayload{
		"empty":   {},
		"title":   {Title: models.Some("A perfectly valid title")},
		"invalid": {Title: models.Some("X"), LocationType: models.Some(models.LocationTypePhysical)},
		"status":  {Status: models.Some(models.GigStatusDraft)},
	}

	for _, st := range []models.GigStatus{
		models.GigStatusAgentConfirmed,
		models.GigStatusCompleted,
		models.GigStatusCancelled,
	} {
		for name, p := range payloads {
			st, p := st, p
			t.Run(string(st)+"/"+name, func(t *testing.T) {
				f := newFixture(t)
				gig := f.withStatus(t, st)

				_, err := f.svc.Update(context.Background(), f.client, gig.ID, p)
				var ne *NotEditableError
				require.True(t, errors.As(err, &ne), "got %v", err)
				assert.Equal(t, st, ne.Status)
			})
		}
	}
}

func TestUpdateLosingRaceIsNotEditable(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())
	f.store.beforeWrite = func(g *models.Gig) { g.Status = models.GigStatusCancelled }

	_, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{Title: models.Some("Another title")})
	var ne *NotEditableError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, models.GigStatusCancelled, ne.Status)
}

func TestUpdateRequiresOwner(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())
	other := models.Actor{ID: uuid.New(), Capabilities: models.CapabilityClient | models.CapabilityAgent}

	_, err := f.svc.Update(context.Background(), other, gig.ID, models.GigPayload{Title: models.Some("Hijacked")})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateSwitchToPhysicalNeedsVenue(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	_, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		LocationType: models.Some(models.LocationTypePhysical),
	})
	got := fieldErrors(t, err)
	assert.Equal(t, []string{MsgVenueRequired}, got["venue"])

	updated, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		LocationType: models.Some(models.LocationTypePhysical),
		Venue:        models.Some(venueInput("p1")),
	})
	require.NoError(t, err)
	assertVenueMatchesType(t, updated)
}

func TestUpdateSwitchToVirtualClearsVenue(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, physicalPayload("p1"))

	_, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		LocationType: models.Some(models.LocationTypeVirtual),
	})
	got := fieldErrors(t, err)
	assert.Equal(t, []string{MsgVenueOnVirtual}, got["venue"])

	updated, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		LocationType: models.Some(models.LocationTypeVirtual),
		Venue:        models.Some[*models.VenueInput](nil),
	})
	require.NoError(t, err)
	assertVenueMatchesType(t, updated)
}

func TestUpdateUnchangedVenueSkipsRegistry(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, physicalPayload("p1"))
	require.Len(t, f.places.calls, 1)

	updated, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		Venue: models.Some(venueInput(" p1 ")),
	})
	require.NoError(t, err)
	assert.Len(t, f.places.calls, 1)
	assert.Equal(t, *gig.VenueID, *updated.VenueID)
}

func TestUpdateChangedVenueLeavesOtherGigsAlone(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, physicalPayload("shared"))
	second := f.create(t, physicalPayload("shared"))
	require.Equal(t, *first.VenueID, *second.VenueID)

	updated, err := f.svc.Update(context.Background(), f.client, second.ID, models.GigPayload{
		Venue: models.Some(venueInput("elsewhere")),
	})
	require.NoError(t, err)
	assert.NotEqual(t, *first.VenueID, *updated.VenueID)

	reloaded, err := f.store.GetGig(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", reloaded.Venue.PlaceID)
	assert.Equal(t, *first.VenueID, *reloaded.VenueID)
}

func TestUpdateRevalidatesSchedule(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	_, err := f.svc.Update(context.Background(), f.client, gig.ID, models.GigPayload{
		EndDatetime: models.Some(testNow.Add(23 * time.Hour)),
	})
	got := fieldErrors(t, err)
	assert.Equal(t, []string{MsgEndBeforeStart}, got["end_datetime"])
}

func TestConfirmAgentAndComplete(t *testing.T) {
	f := newFixture(t)
	gig := f.withStatus(t, models.GigStatusPublished)

	confirmed, err := f.svc.ConfirmAgent(context.Background(), gig.ID, f.agent)
	require.NoError(t, err)
	assert.Equal(t, models.GigStatusAgentConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.AgentID)
	assert.Equal(t, f.agent.ID, *confirmed.AgentID)

	completed, err := f.svc.Complete(context.Background(), gig.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GigStatusCompleted, completed.Status)
	require.NotNil(t, completed.AgentID)
	assert.Equal(t, f.agent.ID, *completed.AgentID)
}

func TestConfirmAgentRequiresAgentCapability(t *testing.T) {
	f := newFixture(t)
	gig := f.withStatus(t, models.GigStatusPublished)

	_, err := f.svc.ConfirmAgent(context.Background(), gig.ID, f.client)
	assert.ErrorIs(t, err, ErrNotAgent)
}

func TestConfirmAgentRequiresPublished(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	_, err := f.svc.ConfirmAgent(context.Background(), gig.ID, f.agent)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, []models.GigStatus{models.GigStatusPublished}, te.Required)

	stored, err := f.store.GetGig(context.Background(), gig.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AgentID)
}

func TestCancel(t *testing.T) {
	for _, st := range []models.GigStatus{models.GigStatusDraft, models.GigStatusPublished} {
		st := st
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t)
			gig := f.withStatus(t, st)

			cancelled, err := f.svc.Cancel(context.Background(), f.client, gig.ID)
			require.NoError(t, err)
			assert.Equal(t, models.GigStatusCancelled, cancelled.Status)
			assert.Nil(t, cancelled.AgentID)
		})
	}
}

func TestCancelAfterAgentConfirmedIsRejected(t *testing.T) {
	f := newFixture(t)
	gig := f.withStatus(t, models.GigStatusAgentConfirmed)

	_, err := f.svc.Cancel(context.Background(), f.client, gig.ID)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, []models.GigStatus{models.GigStatusDraft, models.GigStatusPublished}, te.Required)
}

func TestGetHidesOtherClientsDrafts(t *testing.T) {
	f := newFixture(t)
	gig := f.create(t, virtualPayload())

	got, err := f.svc.Get(context.Background(), f.client, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, gig.ID, got.ID)

	_, err = f.svc.Get(context.Background(), f.agent, gig.ID)
	assert.ErrorIs(t, err, store.ErrGigNotFound)

	_, err = f.svc.Publish(context.Background(), f.client, gig.ID)
	require.NoError(t, err)
	got, err = f.svc.Get(context.Background(), f.agent, gig.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GigStatusPublished, got.Status)
}

func TestListByClient(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.ListByClient(context.Background(), f.client)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	f.create(t, virtualPayload())
	f.create(t, physicalPayload("p1"))

	gigs, err := f.svc.ListByClient(context.Background(), f.client)
	require.NoError(t, err)
	assert.Len(t, gigs, 2)
	for _, g := range gigs {
		assertVenueMatchesType(t, g)
	}

	_, err = f.svc.ListByClient(context.Background(), f.agent)
	assert.ErrorIs(t, err, ErrNotClient)
}

func TestOperationsHonourCancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Create(ctx, f.client, virtualPayload())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.svc.Publish(ctx, f.client, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
