package httpapi

import (
	"context"
	"errors"
	"net/http"

	"agentlyou/internal/auth"
	"agentlyou/internal/store"
	"agentlyou/shared/go/logging"
	"agentlyou/shared/go/models"
)

type actorKey struct{}

// authenticate resolves the bearer token to an Actor with capabilities loaded
// once per request.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		userID, err := s.tokens.Verify(token)
		if err != nil {
			msg := "invalid token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				msg = "missing bearer token"
			case errors.Is(err, auth.ErrExpiredToken):
				msg = "token expired"
			}
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: msg})
			return
		}

		ctx := logging.WithUserID(r.Context(), userID.String())
		user, err := s.users.GetUser(ctx, userID)
		if errors.Is(err, store.ErrUserNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unknown user"})
			return
		}
		if err != nil {
			logging.WithContext(ctx).Error().Err(err).Msg("load actor")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			return
		}

		ctx = context.WithValue(ctx, actorKey{}, user.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey{}).(models.Actor)
	return actor
}
