// Package registry keeps the fixed set of peers a node queries during
// discovery. The set is configured once at startup and never changes while
// the node runs; there is no gossip or membership protocol behind it.
package registry

import (
	"fmt"

	"peershare/datamodel/peer"
)

// Registry is an ordered collection of unique peer addresses. It is immutable
// after construction and therefore safe to share between goroutines.
type Registry struct {
	addrs []peer.Address
}

// New builds a registry from addrs, dropping duplicates while keeping the
// first-occurrence order.
func New(addrs []peer.Address) *Registry {
	r := &Registry{}
	seen := make(map[peer.Address]bool, len(addrs))
	for _, a := range addrs {
		if seen[a] {
			continue
		}
		seen[a] = true
		r.addrs = append(r.addrs, a)
	}
	return r
}

// FromStrings parses every raw "host:port" entry into a registry. A single
// bad entry fails the whole construction so a typo in the configured peer
// list surfaces at startup instead of as a permanently failing peer.
func FromStrings(raw []string) (*Registry, error) {
	addrs := make([]peer.Address, 0, len(raw))
	for _, s := range raw {
		a, err := peer.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("peer entry %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}
	return New(addrs), nil
}

// List returns the registered addresses in registration order. The returned
// slice is a copy.
func (r *Registry) List() []peer.Address {
	out := make([]peer.Address, len(r.addrs))
	copy(out, r.addrs)
	return out
}

func (r *Registry) Len() int {
	return len(r.addrs)
}
