package peer

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	log "github.com/sirupsen/logrus"
)

var ErrInvalidAddress = errors.New("invalid peer address")

// Address identifies a peer by the TCP endpoint its listener is reachable on.
// Addresses are plain values: two Address instances refer to the same logical
// peer exactly when host and port compare equal.
type Address struct {
	Host string
	Port int
}

// Parse converts a "host:port" string into an Address.
func Parse(s string) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Address{}, fmt.Errorf("%w: %q: port out of range", ErrInvalidAddress, s)
	}
	return Address{Host: host, Port: port}, nil
}

// MustParse is Parse for addresses known to be well-formed, such as
// compiled-in fixtures. A malformed input is fatal.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		log.Fatalf("Failed to parse peer address: %v", err)
	}
	return a
}

func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Address marshals as its "host:port" form so it can be embedded in JSON
// wire entries and used as a map key.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
