package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GigStatus is the lifecycle state of a gig.
type GigStatus string

const (
	GigStatusDraft          GigStatus = "draft"
	GigStatusPublished      GigStatus = "published"
	GigStatusAgentConfirmed GigStatus = "agent_confirmed"
	GigStatusCompleted      GigStatus = "completed"
	GigStatusCancelled      GigStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s GigStatus) Valid() bool {
	switch s {
	case GigStatusDraft, GigStatusPublished, GigStatusAgentConfirmed,
		GigStatusCompleted, GigStatusCancelled:
		return true
	}
	return false
}

// LocationType says whether a gig happens online or at a venue.
type LocationType string

const (
	LocationTypeVirtual  LocationType = "virtual"
	LocationTypePhysical LocationType = "physical"
)

// Valid reports whether t is a known location type.
func (t LocationType) Valid() bool {
	return t == LocationTypeVirtual || t == LocationTypePhysical
}

// Gig is a bookable engagement posted by a client.
type Gig struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Labels        []string        `json:"labels"`
	LocationType  LocationType    `json:"location_type"`
	VenueID       *int64          `json:"-"`
	Venue         *Venue          `json:"venue"`
	StartDatetime time.Time       `json:"start_datetime"`
	EndDatetime   time.Time       `json:"end_datetime"`
	Timezone      string          `json:"timezone"`
	Compensation  decimal.Decimal `json:"compensation"`
	Status        GigStatus       `json:"status"`
	ClientID      uuid.UUID       `json:"client"`
	AgentID       *uuid.UUID      `json:"agent"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// GigPayload is the create/update request body. Fields that were not present in
// the request stay unset so updates can be partial.
type GigPayload struct {
	Title         Optional[string]          `json:"title"`
	Description   Optional[string]          `json:"description"`
	Labels        Optional[[]string]        `json:"labels"`
	LocationType  Optional[LocationType]    `json:"location_type"`
	Venue         Optional[*VenueInput]     `json:"venue"`
	StartDatetime Optional[time.Time]       `json:"start_datetime"`
	EndDatetime   Optional[time.Time]       `json:"end_datetime"`
	Timezone      Optional[string]          `json:"timezone"`
	Compensation  Optional[decimal.Decimal] `json:"compensation"`
	Status        Optional[GigStatus]       `json:"status"`
}
