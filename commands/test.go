package commands

import (
	"context"
	"errors"
	"net"

	log "github.com/sirupsen/logrus"

	"peershare/config"
	"peershare/swarm/node"
)

// RunTest is a smoke run: it brings a node up on the configured addresses,
// shares two sample resources and runs one discovery round against the
// configured peers, then exits.
func RunTest(ctx context.Context, cfg *config.Config) {
	log.Info("Running a resource sharing smoke test...")

	listener, err := net.Listen("tcp", cfg.Node.ListenAddress)
	if err != nil {
		log.Fatalf("Failed to create peer listener: %v", err)
	}

	n, err := node.New(cfg, listener)
	if err != nil {
		log.Fatalf("Failed to create node: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := n.Run(cctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("Node stopped early: %v", err)
		}
	}()

	n.Share("Data Structures Notes", "pdf")
	n.Share("OS Lecture Recording", "mp4")

	merged, report := n.Discover(cctx)
	log.Infof("Discovered %d resources across %d registered peers", len(merged), len(report))
	for _, r := range merged {
		log.Infof("  %s (%s) @ %s", r.Name, r.Kind, r.Origin)
	}
	for addr, outcome := range report {
		if outcome.OK {
			log.Infof("Peer %s: ok, %d resources", addr, outcome.Count)
		} else {
			log.Warnf("Peer %s: %v", addr, outcome.Err)
		}
	}
}
