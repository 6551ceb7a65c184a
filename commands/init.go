package commands

import (
	"context"

	log "github.com/sirupsen/logrus"

	"peershare/config"
)

func RunInit(ctx context.Context, cfg *config.Config) {
	if err := cfg.Save(); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	log.Info("Config written with default settings, adjust the peer list before serving")
}
