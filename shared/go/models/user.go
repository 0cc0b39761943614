package models

import (
	"time"

	"github.com/google/uuid"
)

// Capability is a set of marketplace roles an account may act in.
type Capability uint8

const (
	CapabilityClient Capability = 1 << iota
	CapabilityAgent
)

// Has reports whether every bit of c2 is present in c.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

// Role is the role an account signs in as by default.
type Role string

const (
	RoleNone   Role = ""
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
)

// User is an account in the actor directory.
type User struct {
	ID          uuid.UUID `json:"id" yaml:"id"`
	Email       string    `json:"email" yaml:"email"`
	FirstName   string    `json:"first_name" yaml:"first_name"`
	LastName    string    `json:"last_name" yaml:"last_name"`
	IsClient    bool      `json:"is_client" yaml:"is_client"`
	IsAgent     bool      `json:"is_agent" yaml:"is_agent"`
	DefaultRole Role      `json:"default_role" yaml:"default_role"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// Actor returns the capability view of the user consumed by the gig core.
func (u *User) Actor() Actor {
	var caps Capability
	if u.IsClient {
		caps |= CapabilityClient
	}
	if u.IsAgent {
		caps |= CapabilityAgent
	}
	return Actor{ID: u.ID, Capabilities: caps}
}

// Actor is an authenticated identity with its capabilities already loaded.
type Actor struct {
	ID           uuid.UUID
	Capabilities Capability
}

// IsClient reports whether the actor may post gigs.
func (a Actor) IsClient() bool { return a.Capabilities.Has(CapabilityClient) }

// IsAgent reports whether the actor may fulfil gigs.
func (a Actor) IsAgent() bool { return a.Capabilities.Has(CapabilityAgent) }
