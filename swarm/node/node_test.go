package node

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peershare/config"
	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
	"peershare/net/lineproto"
)

// startNode brings up a complete node on an ephemeral port, serving until
// the test ends. The given peers become its registry.
func startNode(t *testing.T, peers ...string) *Node {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.NewEmptyConfig("unused.json")
	cfg.Node.AdvertiseAddress = listener.Addr().String()
	cfg.Swarm.Peers = peers
	cfg.Swarm.TimeoutMS = 1000

	n, err := New(cfg, listener)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go n.Run(ctx)
	return n
}

func names(rs []resource.Resource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestNewRejectsBadAdvertiseAddress(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := config.NewEmptyConfig("unused.json")
	cfg.Node.AdvertiseAddress = "no-port-here"

	_, err = New(cfg, listener)
	assert.ErrorIs(t, err, peer.ErrInvalidAddress)
}

func TestNewRejectsBadPeerEntry(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := config.NewEmptyConfig("unused.json")
	cfg.Node.AdvertiseAddress = listener.Addr().String()
	cfg.Swarm.Peers = []string{"localhost:9005", "garbage"}

	_, err = New(cfg, listener)
	assert.ErrorIs(t, err, peer.ErrInvalidAddress)
}

func TestNewResolvesAdvertiseFromListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	cfg := config.NewEmptyConfig("unused.json")
	cfg.Node.AdvertiseAddress = ""
	cfg.Swarm.Peers = nil

	n, err := New(cfg, listener)
	require.NoError(t, err)

	bound := listener.Addr().(*net.TCPAddr)
	assert.Equal(t, "127.0.0.1", n.Advertise.Host)
	assert.Equal(t, bound.Port, n.Advertise.Port)
}

func TestShareStampsOriginAndTime(t *testing.T) {
	n := startNode(t)

	before := time.Now()
	r := n.Share("Data Structures Notes", "pdf")

	assert.Equal(t, "Data Structures Notes", r.Name)
	assert.Equal(t, n.Advertise, r.Origin)
	assert.False(t, r.CreatedAt.Before(before))
	assert.Equal(t, 1, n.Store.Len())
}

func TestDiscoverWithoutPeersReturnsLocalOnly(t *testing.T) {
	n := startNode(t)
	n.Share("solo", "txt")

	merged, report := n.Discover(context.Background())
	assert.Equal(t, []string{"solo"}, names(merged))
	assert.Empty(t, report)
}

func TestTwoNodesSeeEachOther(t *testing.T) {
	b := startNode(t)
	b.Share("b-notes", "pdf")

	a := startNode(t, b.Advertise.String())
	a.Share("a-notes", "txt")

	merged, report := a.Discover(context.Background())
	require.Equal(t, []string{"a-notes", "b-notes"}, names(merged))
	assert.Equal(t, a.Advertise, merged[0].Origin)
	assert.Equal(t, b.Advertise, merged[1].Origin)
	assert.True(t, report[b.Advertise].OK)
	assert.Equal(t, 1, report[b.Advertise].Count)
}

func TestDiscoverKeepsSameNameFromDifferentOrigins(t *testing.T) {
	b := startNode(t)
	b.Share("study guide", "pdf")

	a := startNode(t, b.Advertise.String())
	a.Share("study guide", "pdf")

	merged, _ := a.Discover(context.Background())
	require.Equal(t, []string{"study guide", "study guide"}, names(merged))
	assert.NotEqual(t, merged[0].Origin, merged[1].Origin)
}

func TestDiscoverSurvivesDeadPeer(t *testing.T) {
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.Addr().String()
	require.NoError(t, dead.Close())

	b := startNode(t)
	b.Share("still-here", "txt")

	a := startNode(t, deadAddr, b.Advertise.String())

	merged, report := a.Discover(context.Background())
	assert.Equal(t, []string{"still-here"}, names(merged))

	deadPeer, err := peer.Parse(deadAddr)
	require.NoError(t, err)
	assert.False(t, report[deadPeer].OK)
	assert.Error(t, report[deadPeer].Err)
}

func TestGetResourceAcrossNodes(t *testing.T) {
	b := startNode(t)
	b.Share("b-notes", "pdf")

	a := startNode(t, b.Advertise.String())

	name, err := a.GetResource(context.Background(), b.Advertise, "b-notes")
	require.NoError(t, err)
	assert.Equal(t, "b-notes", name)
}

func TestRunStopsOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.NewEmptyConfig("unused.json")
	cfg.Node.AdvertiseAddress = listener.Addr().String()
	cfg.Swarm.Peers = nil

	n, err := New(cfg, listener)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	// The node must answer while running.
	var c lineproto.Client
	rs, err := c.Discover(context.Background(), n.Advertise)
	require.NoError(t, err)
	assert.Empty(t, rs)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("node did not stop after cancellation")
	}
}
