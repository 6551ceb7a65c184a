// Package node assembles a running peer out of its parts: the resource
// store, the protocol listener, the registry of known peers and the
// discovery client.
package node

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"

	"peershare/config"
	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
	"peershare/datastore/resourcestore"
	"peershare/helper/netutil"
	"peershare/net/lineproto"
	"peershare/swarm/discovery"
	"peershare/swarm/registry"
)

type Node struct {
	// Identity
	Advertise peer.Address

	// Storage
	Store *resourcestore.Store

	// Networking
	Server   *lineproto.Server
	Registry *registry.Registry

	discovery *discovery.Client
}

func New(cfg *config.Config, listener net.Listener) (*Node, error) {
	// The advertised address comes from the config when set, otherwise
	// from whatever the listener is actually bound to.
	var advertise peer.Address
	if cfg.Node.AdvertiseAddress != "" {
		a, err := peer.Parse(cfg.Node.AdvertiseAddress)
		if err != nil {
			return nil, fmt.Errorf("advertise address: %w", err)
		}
		advertise = a
	} else {
		a, err := netutil.AdvertiseAddr(listener.Addr())
		if err != nil {
			return nil, err
		}
		advertise = a
	}

	reg, err := registry.FromStrings(cfg.Swarm.Peers)
	if err != nil {
		return nil, fmt.Errorf("peer registry: %w", err)
	}

	store := resourcestore.New()
	n := &Node{
		Advertise: advertise,
		Store:     store,
		Server:    lineproto.NewServer(listener, store),
		Registry:  reg,
		discovery: discovery.New(advertise, cfg.PeerTimeout()),
	}

	log.Infof("I am %s, listening on %s, %d peers registered", advertise, listener.Addr(), reg.Len())

	return n, nil
}

// Share records a resource in the local store, stamped with this node's
// advertised address, and returns the stored entry.
func (n *Node) Share(name, kind string) resource.Resource {
	r := n.Store.Add(name, kind, n.Advertise)
	log.Infof("Node: now sharing %q (%s)", r.Name, r.Kind)
	return r
}

// Discover returns everything this node can currently see: its own
// resources first, then each registered peer's in registry order. Peers that
// could not be reached are reported in the outcome map and contribute
// nothing; they never fail the call. Every call queries the peers afresh.
func (n *Node) Discover(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome) {
	local := n.Store.Snapshot()
	remote, report := n.discovery.QueryAll(ctx, n.Registry)
	return append(local, remote...), report
}

// GetResource asks one peer to acknowledge a named resource.
func (n *Node) GetResource(ctx context.Context, addr peer.Address, name string) (string, error) {
	return n.discovery.Fetch(ctx, addr, name)
}

func (n *Node) Run(ctx context.Context) error {
	wg, cctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return n.Server.Serve(cctx)
	})

	return wg.Wait()
}
