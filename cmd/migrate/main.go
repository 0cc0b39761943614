package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"agentlyou/shared/go/logging"
)

func main() {
	logging.SetGlobalLogger(logging.New(logging.Config{Level: "info", Format: "text"}))

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}
