package main

import (
	"context"
	"net/http"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"

	"agentlyou/internal/app/gigs"
	"agentlyou/internal/app/places"
	"agentlyou/internal/auth"
	"agentlyou/internal/cache"
	"agentlyou/internal/httpapi"
	"agentlyou/internal/store"
	"agentlyou/shared/go/config"
	"agentlyou/shared/go/middleware"
)

func newHTTPHandler(ctx context.Context, cfg *config.Config, dataStore *store.Store) (http.Handler, func(), error) {
	cleanup := func() {}

	var locationCache places.Cache
	if cfg.Cache.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = client.Close() }
		locationCache = cache.NewLocationCache(client, cfg.Cache.LocationTTL)
		log.Info().Dur("ttl", cfg.Cache.LocationTTL).Msg("location cache enabled")
	}

	registry := places.New(dataStore, locationCache)
	gigSvc := gigs.New(dataStore, registry, clock.WallClock)
	verifier := auth.NewVerifier(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, nil)

	var handler http.Handler = httpapi.New(gigSvc, dataStore, verifier).Routes()
	handler = middleware.CORS(cfg.CORS.AllowedOrigins)(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.Recovery()(handler)
	return handler, cleanup, nil
}
