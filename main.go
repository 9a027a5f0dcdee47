// main is the entry point of the popilot CLI.
package main

import (
	"os"

	"github.com/huangsam/popilot/cmd"
	"github.com/huangsam/popilot/internal/iocache"
	"github.com/rs/zerolog/log"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
