// Package discovery fans a DISCOVER query out to every registered peer and
// merges whatever comes back into one view.
package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
	"peershare/net/lineproto"
	"peershare/swarm/registry"
)

// Outcome records how the query against one peer ended. Exactly one of OK or
// Err is meaningful; Count is the number of entries the peer contributed.
type Outcome struct {
	OK    bool
	Count int
	Err   error
}

// Client queries many peers concurrently. Construct it with New.
type Client struct {
	self  peer.Address
	peers lineproto.Client
}

// New returns a Client that skips self when it appears in a registry and
// bounds every per-peer exchange by timeout.
func New(self peer.Address, timeout time.Duration) *Client {
	return &Client{
		self:  self,
		peers: lineproto.Client{Timeout: timeout},
	}
}

// Fetch asks a single peer to acknowledge the named resource. The protocol
// carries no content, so the reply is just the echoed name.
func (c *Client) Fetch(ctx context.Context, addr peer.Address, name string) (string, error) {
	return c.peers.GetResource(ctx, addr, name)
}

// QueryAll asks every peer in reg for its resources, one goroutine per peer,
// and returns the merged entries in registry order (each peer's entries in
// the order that peer sent them). A peer that fails or times out contributes
// nothing and is reported in the outcome map; it never fails the round. The
// node's own address is answered locally with an empty contribution instead
// of being dialed.
func (c *Client) QueryAll(ctx context.Context, reg *registry.Registry) ([]resource.Resource, map[peer.Address]Outcome) {
	peers := reg.List()
	round := uuid.New().String()
	start := time.Now()
	log.Infof("discovery.Client: round %s: querying %d peers", round, len(peers))

	resultSets := make([][]resource.Resource, len(peers))
	outcomes := make([]Outcome, len(peers))

	g, ctx := errgroup.WithContext(ctx)
	for i, addr := range peers {
		g.Go(func() error {
			if addr == c.self {
				log.Debugf("discovery.Client: round %s: own address %s, nothing to fetch", round, addr)
				outcomes[i] = Outcome{OK: true}
				return nil
			}
			rs, err := c.peers.Discover(ctx, addr)
			if err != nil {
				log.Warnf("discovery.Client: round %s: peer %s failed: %v", round, addr, err)
				outcomes[i] = Outcome{Err: err}
				return nil
			}
			log.Debugf("discovery.Client: round %s: peer %s contributed %d resources", round, addr, len(rs))
			resultSets[i] = rs
			outcomes[i] = Outcome{OK: true, Count: len(rs)}
			return nil
		})
	}
	// Workers record failures instead of returning them, so the join never
	// yields an error.
	_ = g.Wait()

	merged := []resource.Resource{}
	reached := 0
	for i, set := range resultSets {
		merged = append(merged, set...)
		if outcomes[i].OK {
			reached++
		}
	}
	report := make(map[peer.Address]Outcome, len(peers))
	for i, addr := range peers {
		report[addr] = outcomes[i]
	}

	log.Infof("discovery.Client: round %s: %d resources from %d/%d peers in %v",
		round, len(merged), reached, len(peers), time.Since(start).Round(time.Millisecond))
	return merged, report
}
