package models

import "time"

// Location is a canonical (city, state/region, country) triple shared by venues.
type Location struct {
	ID          int64     `json:"id"`
	City        string    `json:"city"`
	StateRegion string    `json:"state_region"`
	Country     string    `json:"country"`
	CreatedAt   time.Time `json:"created_at"`
}

// LocationInput carries candidate location fields before resolution.
type LocationInput struct {
	City        string `json:"city"`
	StateRegion string `json:"state_region"`
	Country     string `json:"country"`
}

// Key returns the natural key of the location.
func (l Location) Key() LocationInput {
	return LocationInput{City: l.City, StateRegion: l.StateRegion, Country: l.Country}
}

// Venue is a physical place identified by an external place id
type Venue struct {
	ID         int64     `json:"id"`
	PlaceID    string    `json:"place_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	LocationID int64     `json:"-"`
	Location   *Location `json:"location,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VenueInput is the venue payload accepted on gig create/update.
type VenueInput struct {
	PlaceID  string        `json:"place_id"`
	Name     string        `json:"name"`
	Address  string        `json:"address"`
	Location LocationInput `json:"location"`
}

// Input converts a stored venue back into the payload shape so it can be
// compared against incoming venue payloads.
func (v *Venue) Input() VenueInput {
	in := VenueInput{
		PlaceID: v.PlaceID,
		Name:    v.Name,
		Address: v.Address,
	}
	if v.Location != nil {
		in.Location = v.Location.Key()
	}
	return in
}
