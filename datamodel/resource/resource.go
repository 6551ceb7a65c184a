package resource

import (
	"time"

	"peershare/datamodel/peer"
)

// Resource describes one shareable item advertised by a peer. Only metadata
// travels between peers; the content itself never does.
//
// A Resource is immutable once constructed. The owning store only ever grows
// its collection; entries are never updated or removed.
type Resource struct {
	Name      string       `json:"name"`       // Identifying name, free-form
	Kind      string       `json:"kind"`       // Category, free-form ("pdf", "link", ...)
	Origin    peer.Address `json:"origin"`     // Listener address of the peer that shared it
	CreatedAt time.Time    `json:"created_at"` // Set once at sharing time
}

// Equal compares field-wise. CreatedAt is compared with time.Time.Equal so a
// resource survives an encode/decode roundtrip as "equal" even though the
// wall-clock representation loses the monotonic reading.
func (r Resource) Equal(other Resource) bool {
	return r.Name == other.Name &&
		r.Kind == other.Kind &&
		r.Origin == other.Origin &&
		r.CreatedAt.Equal(other.CreatedAt)
}
