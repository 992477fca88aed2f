// Command nbasync synchronizes the local NBA stats mirror. With no arguments
// it runs one game sync and prints a one-line summary.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("nbasync failed")
		os.Exit(1)
	}
}
