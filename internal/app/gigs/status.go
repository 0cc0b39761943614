package gigs

import "agentlyou/shared/go/models"

// transitions lists the legal next states per status. Cancellation after an
// agent confirmed is not defined yet and stays illegal.
var transitions = map[models.GigStatus][]models.GigStatus{
	models.GigStatusDraft:          {models.GigStatusPublished, models.GigStatusCancelled},
	models.GigStatusPublished:      {models.GigStatusAgentConfirmed, models.GigStatusCancelled},
	models.GigStatusAgentConfirmed: {models.GigStatusCompleted},
	models.GigStatusCompleted:      nil,
	models.GigStatusCancelled:      nil,
}

// EditableStatuses are the statuses in which generic field updates are allowed.
var EditableStatuses = []models.GigStatus{models.GigStatusDraft, models.GigStatusPublished}

// IsTransitionAllowed reports whether a gig may move directly from one status to another.
func IsTransitionAllowed(from, to models.GigStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsEditable reports whether generic updates are allowed in status s.
func IsEditable(s models.GigStatus) bool {
	for _, st := range EditableStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.GigStatus) bool {
	return s.Valid() && len(transitions[s]) == 0
}

// sourcesOf returns the statuses that may transition into to, in lifecycle order.
func sourcesOf(to models.GigStatus) []models.GigStatus {
	order := []models.GigStatus{
		models.GigStatusDraft,
		models.GigStatusPublished,
		models.GigStatusAgentConfirmed,
		models.GigStatusCompleted,
		models.GigStatusCancelled,
	}
	var out []models.GigStatus
	for _, from := range order {
		if IsTransitionAllowed(from, to) {
			out = append(out, from)
		}
	}
	return out
}
