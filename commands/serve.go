package commands

import (
	"context"
	"errors"
	"net"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"

	"peershare/bridge"
	"peershare/config"
	"peershare/swarm/node"
)

// RunServe brings up the peer listener and the HTTP bridge and blocks until
// the context is cancelled.
func RunServe(ctx context.Context, cfg *config.Config) {
	listener, err := net.Listen("tcp", cfg.Node.ListenAddress)
	if err != nil {
		log.Fatalf("Failed to create peer listener: %v", err)
	}

	n, err := node.New(cfg, listener)
	if err != nil {
		log.Fatalf("Failed to create node: %v", err)
	}

	b := bridge.New(n, cfg.Bridge.ListenAddress)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return n.Run(gctx)
	})

	g.Go(func() error {
		return b.Serve(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Node stopped with error: %v", err)
	}
	log.Info("Node stopped")
}
