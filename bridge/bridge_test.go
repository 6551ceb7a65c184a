package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
	"peershare/swarm/discovery"
)

// nodeMock fakes the node behind the bridge.
type nodeMock struct {
	ShareFunc    func(name, kind string) resource.Resource
	DiscoverFunc func(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome)
}

func (m *nodeMock) Share(name, kind string) resource.Resource {
	return m.ShareFunc(name, kind)
}

func (m *nodeMock) Discover(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome) {
	return m.DiscoverFunc(ctx)
}

func TestShare(t *testing.T) {
	origin := peer.MustParse("localhost:9004")
	node := &nodeMock{
		ShareFunc: func(name, kind string) resource.Resource {
			assert.Equal(t, "Data Structures Notes", name)
			assert.Equal(t, "pdf", kind)
			return resource.Resource{Name: name, Kind: kind, Origin: origin, CreatedAt: time.Now()}
		},
	}
	b := New(node, "localhost:0")

	req := httptest.NewRequest(http.MethodPost, "/share",
		strings.NewReader(`{"name":"Data Structures Notes","kind":"pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ShareResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Resource shared successfully! Other peers can now discover it.", resp.Message)
	assert.Equal(t, "Data Structures Notes", resp.Resource.Name)
	assert.Equal(t, origin, resp.Resource.Origin)
}

func TestShareRejectsBadBody(t *testing.T) {
	b := New(&nodeMock{}, "localhost:0")

	req := httptest.NewRequest(http.MethodPost, "/share", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscover(t *testing.T) {
	good := peer.MustParse("localhost:9005")
	bad := peer.MustParse("localhost:9006")
	node := &nodeMock{
		DiscoverFunc: func(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome) {
			return []resource.Resource{
					{Name: "mine", Kind: "txt", Origin: peer.MustParse("localhost:9004")},
					{Name: "theirs", Kind: "pdf", Origin: good},
				}, map[peer.Address]discovery.Outcome{
					good: {OK: true, Count: 1},
					bad:  {Err: assert.AnError},
				}
		},
	}
	b := New(node, "localhost:0")

	req := httptest.NewRequest(http.MethodGet, "/discover", nil)
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiscoverResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Resources, 2)
	assert.Equal(t, "mine", resp.Resources[0].Name)
	assert.Equal(t, "theirs", resp.Resources[1].Name)
	assert.Equal(t, []string{"localhost:9006"}, resp.Failed)
}

func TestDiscoverEmptyKeepsResourcesArray(t *testing.T) {
	node := &nodeMock{
		DiscoverFunc: func(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome) {
			return []resource.Resource{}, nil
		},
	}
	b := New(node, "localhost:0")

	req := httptest.NewRequest(http.MethodGet, "/discover", nil)
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// The UI expects an array, not null.
	assert.Contains(t, rec.Body.String(), `"resources":[]`)
}

func TestCORSPreflight(t *testing.T) {
	b := New(&nodeMock{}, "localhost:0")

	req := httptest.NewRequest(http.MethodOptions, "/share", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownPath(t *testing.T) {
	b := New(&nodeMock{}, "localhost:0")

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	b.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	node := &nodeMock{
		DiscoverFunc: func(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome) {
			return []resource.Resource{}, nil
		},
	}
	b := New(node, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx) }()

	// Wait for the listener to come up, then hit it for real.
	var baseURL string
	require.Eventually(t, func() bool {
		addr := b.echo.ListenerAddr()
		if addr == nil || addr.String() == "" {
			return false
		}
		baseURL = fmt.Sprintf("http://%s", addr.String())
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(baseURL + "/discover")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("bridge did not stop after cancellation")
	}
}
