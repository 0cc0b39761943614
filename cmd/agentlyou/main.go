package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	// Embedded IANA database so gig timezones validate on minimal images.
	_ "time/tzdata"

	"agentlyou/internal/store"
	"agentlyou/shared/go/config"
	"agentlyou/shared/go/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	dataStore := store.New(db)

	if cfg.IsDevelopment() && cfg.Seed.File != "" {
		if err := bootstrapUsers(ctx, dataStore, cfg.Seed.File); err != nil {
			log.Fatal().Err(err).Msg("seed users")
		}
	}

	handler, cleanup, err := newHTTPHandler(ctx, cfg, dataStore)
	if err != nil {
		log.Fatal().Err(err).Msg("build handler")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown server")
		}
	}()

	log.Info().Str("addr", cfg.Addr()).Str("env", cfg.Environment).Msg("API listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}
