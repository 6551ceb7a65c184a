// Package lineproto implements the wire protocol spoken between peers: one
// newline-terminated plain-text request per connection, answered by at most
// one newline-terminated response line, then the connection closes.
//
// Requests:
//
//	DISCOVER
//	GET_RESOURCE:<name>
//
// The DISCOVER response grammar is
//
//	response = "RESOURCES:" *( entry "|" )
//	entry    = JSON object {"name","kind","origin","created_at"}
//
// with a '|' after every entry; an empty collection answers with the bare
// prefix. Entries are decoded with a streaming JSON decoder rather than by
// splitting on '|', so a resource name containing the separator survives the
// roundtrip. GET_RESOURCE is answered with the placeholder RESOURCE_DATA
// line echoing the name; the protocol defines no content transfer.
package lineproto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
)

const (
	// CommandDiscover asks a peer for everything it currently shares.
	CommandDiscover = "DISCOVER"

	// CommandGetResourcePrefix prefixes the name of the requested resource.
	CommandGetResourcePrefix = "GET_RESOURCE:"

	resourcesPrefix    = "RESOURCES:"
	resourceDataPrefix = "RESOURCE_DATA:"
	entrySeparator     = "|"

	// MaxLineBytes bounds any single protocol line read from the network.
	MaxLineBytes = 1 << 20
)

var ErrMalformedResponse = errors.New("malformed discovery response")

// wireEntry shadows resource.Resource with pointer fields so a decoded entry
// can be checked for fields that are absent rather than merely empty.
type wireEntry struct {
	Name      *string       `json:"name"`
	Kind      *string       `json:"kind"`
	Origin    *peer.Address `json:"origin"`
	CreatedAt time.Time     `json:"created_at"`
}

// EncodeResources builds the DISCOVER response line, newline excluded.
func EncodeResources(rs []resource.Resource) (string, error) {
	var b strings.Builder
	b.WriteString(resourcesPrefix)
	for _, r := range rs {
		enc, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("encode entry %q: %w", r.Name, err)
		}
		b.Write(enc)
		b.WriteString(entrySeparator)
	}
	return b.String(), nil
}

// DecodeResources parses one DISCOVER response line. A line without the
// RESOURCES prefix, or with JSON the decoder cannot resynchronize past, is a
// malformed response and yields no entries. An entry that decodes but lacks
// its name or origin is dropped on its own and the rest of the line is kept.
func DecodeResources(line string) ([]resource.Resource, error) {
	rest, ok := strings.CutPrefix(line, resourcesPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedResponse, resourcesPrefix)
	}

	out := []resource.Resource{}
	for {
		rest = strings.TrimLeft(rest, entrySeparator)
		if rest == "" {
			return out, nil
		}

		dec := json.NewDecoder(strings.NewReader(rest))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			// Broken JSON leaves no safe place to resume from.
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		rest = rest[dec.InputOffset():]

		r, err := decodeEntry(raw)
		if err != nil {
			log.Debugf("lineproto: skipping unparseable entry: %v", err)
			continue
		}
		out = append(out, r)
	}
}

func decodeEntry(raw json.RawMessage) (resource.Resource, error) {
	var e wireEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return resource.Resource{}, err
	}
	if e.Name == nil {
		return resource.Resource{}, errors.New("entry has no name")
	}
	if e.Origin == nil {
		return resource.Resource{}, errors.New("entry has no origin")
	}

	r := resource.Resource{
		Name:      *e.Name,
		Origin:    *e.Origin,
		CreatedAt: e.CreatedAt,
	}
	if e.Kind != nil {
		r.Kind = *e.Kind
	}
	return r, nil
}

// EncodeAck builds the GET_RESOURCE acknowledgement line. It only echoes the
// name back; resources are advertised as metadata, never transferred.
func EncodeAck(name string) string {
	return resourceDataPrefix + name
}

// DecodeAck extracts the echoed name from a GET_RESOURCE acknowledgement.
func DecodeAck(line string) (string, error) {
	name, ok := strings.CutPrefix(line, resourceDataPrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing %q prefix", ErrMalformedResponse, resourceDataPrefix)
	}
	return name, nil
}
