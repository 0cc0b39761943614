package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"agentlyou/internal/app/gigs"
	"agentlyou/internal/app/places"
	"agentlyou/internal/store"
	"agentlyou/shared/go/logging"
	"agentlyou/shared/go/models"
)

func (s *Server) handleCreateGig(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeGigPayload(w, r)
	if !ok {
		return
	}

	gig, err := s.gigs.Create(r.Context(), actorFrom(r.Context()), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gig)
}

func (s *Server) handleListGigs(w http.ResponseWriter, r *http.Request) {
	list, err := s.gigs.ListByClient(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetGig(w http.ResponseWriter, r *http.Request) {
	id, ok := gigID(w, r)
	if !ok {
		return
	}

	gig, err := s.gigs.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gig)
}

// handleUpdateGig serves both PUT and PATCH; absent fields keep their value.
func (s *Server) handleUpdateGig(w http.ResponseWriter, r *http.Request) {
	id, ok := gigID(w, r)
	if !ok {
		return
	}
	payload, ok := decodeGigPayload(w, r)
	if !ok {
		return
	}

	gig, err := s.gigs.Update(r.Context(), actorFrom(r.Context()), id, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gig)
}

func (s *Server) handlePublishGig(w http.ResponseWriter, r *http.Request) {
	id, ok := gigID(w, r)
	if !ok {
		return
	}

	gig, err := s.gigs.Publish(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Detail: "Gig published successfully.", Gig: gig})
}

func (s *Server) handleCancelGig(w http.ResponseWriter, r *http.Request) {
	id, ok := gigID(w, r)
	if !ok {
		return
	}

	gig, err := s.gigs.Cancel(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{Detail: "Gig cancelled successfully.", Gig: gig})
}

// gigID parses the {id} path variable. A malformed id cannot name a gig, so
// it is reported as not found.
func gigID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "gig not found"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeGigPayload(w http.ResponseWriter, r *http.Request) (models.GigPayload, bool) {
	var payload models.GigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, fieldErrorsResponse{Errors: map[string][]string{
				typeErr.Field: {"Incorrect type."},
			}})
			return payload, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return payload, false
	}
	return payload, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fieldErr      *gigs.FieldValidationError
		transitionErr *gigs.TransitionError
		notEditable   *gigs.NotEditableError
	)

	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, fieldErrorsResponse{Errors: fieldErr.Fields})
	case errors.Is(err, places.ErrIncompleteLocation), errors.Is(err, places.ErrIncompleteVenue):
		writeJSON(w, http.StatusBadRequest, fieldErrorsResponse{Errors: map[string][]string{
			"venue": {err.Error()},
		}})
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: transitionErr.Error()})
	case errors.As(err, &notEditable):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: notEditable.Error()})
	case errors.Is(err, gigs.ErrNotClient):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "You must be a client to perform this action."})
	case errors.Is(err, gigs.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "You do not have permission to perform this action on this gig."})
	case errors.Is(err, gigs.ErrNotAgent):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Agent must be an actual agent in app."})
	case errors.Is(err, store.ErrGigNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "gig not found"})
	default:
		logging.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
