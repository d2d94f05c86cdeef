// Command countrycache serves the country cache API and provides one-shot
// maintenance commands (refresh, backfill-keys).
//
// @title       Country Cache API
// @version     1.0
// @description Caches country data joined with exchange rates and serves it over REST.
// @BasePath    /
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
