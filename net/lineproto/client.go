package lineproto

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
)

// DefaultTimeout bounds a whole query when the caller sets none.
const DefaultTimeout = 2 * time.Second

// Client speaks the protocol to one peer at a time. Every call dials a fresh
// connection and runs the full exchange under a single deadline covering
// connect, write and read. The zero value is usable.
type Client struct {
	// Timeout bounds one complete exchange. Zero or negative means
	// DefaultTimeout.
	Timeout time.Duration
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Discover asks the peer at addr for its full resource list.
func (c *Client) Discover(ctx context.Context, addr peer.Address) ([]resource.Resource, error) {
	line, err := c.exchange(ctx, addr, CommandDiscover)
	if err != nil {
		return nil, err
	}
	rs, err := DecodeResources(line)
	if err != nil {
		return nil, fmt.Errorf("peer %s: %w", addr, err)
	}
	return rs, nil
}

// GetResource requests the acknowledgement for one named resource. The
// returned string is the name the peer echoed back; no content is carried.
func (c *Client) GetResource(ctx context.Context, addr peer.Address, name string) (string, error) {
	line, err := c.exchange(ctx, addr, CommandGetResourcePrefix+name)
	if err != nil {
		return "", err
	}
	ack, err := DecodeAck(line)
	if err != nil {
		return "", fmt.Errorf("peer %s: %w", addr, err)
	}
	return ack, nil
}

func (c *Client) exchange(ctx context.Context, addr peer.Address, request string) (string, error) {
	deadline := time.Now().Add(c.timeout())

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("set deadline on %s: %w", addr, err)
	}

	if _, err := io.WriteString(conn, request+"\n"); err != nil {
		return "", fmt.Errorf("write to %s: %w", addr, err)
	}

	// A peer that closes without answering surfaces here as io.EOF.
	r := bufio.NewReader(io.LimitReader(conn, MaxLineBytes))
	line, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read from %s: %w", addr, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
