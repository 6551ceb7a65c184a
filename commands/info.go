package commands

import (
	"context"

	log "github.com/sirupsen/logrus"

	"peershare/config"
	"peershare/swarm/registry"
)

// RunInfo prints the node configuration as it would be used by serve.
func RunInfo(ctx context.Context, cfg *config.Config) {
	reg, err := registry.FromStrings(cfg.Swarm.Peers)
	if err != nil {
		log.Fatalf("Bad peer list in config: %v", err)
	}

	advertise := cfg.Node.AdvertiseAddress
	if advertise == "" {
		advertise = "(resolved from the listener at startup)"
	}

	log.Infof("Peer listener: %s", cfg.Node.ListenAddress)
	log.Infof("Advertised as: %s", advertise)
	log.Infof("HTTP bridge:   %s", cfg.Bridge.ListenAddress)
	log.Infof("Peer timeout:  %s", cfg.PeerTimeout())
	log.Infof("Known peers:   %d", reg.Len())
	for _, p := range reg.List() {
		log.Infof("  %s", p)
	}
}
