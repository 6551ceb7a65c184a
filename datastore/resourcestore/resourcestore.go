// Package resourcestore keeps the set of resources this node shares with the
// swarm. The collection is in-memory only and lives exactly as long as the
// process: it starts empty, grows by Add and is never persisted.
package resourcestore

import (
	"sync"
	"time"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
)

// Store is the append-only collection of locally shared resources. It is the
// only state shared between the listener, the bridge and the aggregation
// path, so every access is serialized through the mutex. Lock hold time is
// bounded: an append, or a single copy-out.
type Store struct {
	mu        sync.Mutex
	resources []resource.Resource

	// now is swappable so tests can pin CreatedAt.
	now func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// Add constructs a Resource stamped with the current time, appends it and
// returns the stored value. Inputs are accepted as-is, empty strings
// included; validation, where wanted, belongs to the caller.
func (s *Store) Add(name, kind string, origin peer.Address) resource.Resource {
	r := resource.Resource{
		Name:      name,
		Kind:      kind,
		Origin:    origin,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.resources = append(s.resources, r)
	s.mu.Unlock()

	return r
}

// Snapshot returns a copy of the collection in insertion order. The copy
// shares no storage with the Store, so Adds that land after the snapshot was
// taken can never disturb it.
func (s *Store) Snapshot() []resource.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]resource.Resource, len(s.resources))
	copy(out, s.resources)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}
