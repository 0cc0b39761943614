package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"agentlyou/shared/go/models"
)

// GigService captures the gig workflows exposed over HTTP.
type GigService interface {
	Create(ctx context.Context, actor models.Actor, payload models.GigPayload) (*models.Gig, error)
	Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
	ListByClient(ctx context.Context, actor models.Actor) ([]*models.Gig, error)
	Update(ctx context.Context, actor models.Actor, id uuid.UUID, payload models.GigPayload) (*models.Gig, error)
	Publish(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
	Cancel(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Gig, error)
}

// UserDirectory loads the account behind an authenticated user id.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	Verify(raw string) (uuid.UUID, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	gigs   GigService
	users  UserDirectory
	tokens TokenVerifier
}

// New configures a Server.
func New(gigs GigService, users UserDirectory, tokens TokenVerifier) *Server {
	return &Server{gigs: gigs, users: users, tokens: tokens}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/gigs", s.handleCreateGig).Methods(http.MethodPost)
	api.HandleFunc("/gigs", s.handleListGigs).Methods(http.MethodGet)
	api.HandleFunc("/gigs/{id}", s.handleGetGig).Methods(http.MethodGet)
	api.HandleFunc("/gigs/{id}", s.handleUpdateGig).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/gigs/{id}/publish", s.handlePublishGig).Methods(http.MethodPost)
	api.HandleFunc("/gigs/{id}/cancel", s.handleCancelGig).Methods(http.MethodPost)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

type fieldErrorsResponse struct {
	Errors map[string][]string `json:"errors"`
}

type transitionResponse struct {
	Detail string      `json:"detail"`
	Gig    *models.Gig `json:"gig"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
