// Package bridge exposes a node to the local web UI over HTTP. It is the
// only HTTP surface; peers talk to each other over the line protocol, never
// through the bridge.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"peershare/datamodel/peer"
	"peershare/datamodel/resource"
	"peershare/swarm/discovery"
)

// NodeAPI is the slice of the node the bridge needs.
type NodeAPI interface {
	Share(name, kind string) resource.Resource
	Discover(ctx context.Context) ([]resource.Resource, map[peer.Address]discovery.Outcome)
}

type ShareRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type ShareResponse struct {
	Message  string            `json:"message"`
	Resource resource.Resource `json:"resource"`
}

type DiscoverResponse struct {
	Resources []resource.Resource `json:"resources"`
	// Failed lists the peers that could not be queried this round.
	Failed []string `json:"failed,omitempty"`
}

type Bridge struct {
	node NodeAPI
	addr string
	echo *echo.Echo
}

func New(node NodeAPI, addr string) *Bridge {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// The UI is served from another origin.
	e.Use(middleware.CORS())

	b := &Bridge{
		node: node,
		addr: addr,
		echo: e,
	}
	e.POST("/share", b.handleShare)
	e.GET("/discover", b.handleDiscover)
	return b
}

// handleShare (POST /share) records a new local resource.
func (b *Bridge) handleShare(ectx echo.Context) error {
	var req ShareRequest
	if err := ectx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	r := b.node.Share(req.Name, req.Kind)
	return ectx.JSON(http.StatusOK, ShareResponse{
		Message:  "Resource shared successfully! Other peers can now discover it.",
		Resource: r,
	})
}

// handleDiscover (GET /discover) queries every registered peer and returns
// the merged view, local resources first.
func (b *Bridge) handleDiscover(ectx echo.Context) error {
	rs, report := b.node.Discover(ectx.Request().Context())

	resp := DiscoverResponse{Resources: rs}
	for addr, outcome := range report {
		if !outcome.OK {
			resp.Failed = append(resp.Failed, addr.String())
		}
	}
	sort.Strings(resp.Failed)

	return ectx.JSON(http.StatusOK, resp)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (b *Bridge) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Infof("bridge: HTTP listening on %s", b.addr)
		errc <- b.echo.Start(b.addr)
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.echo.Shutdown(shutdownCtx); err != nil {
		log.Warnf("bridge: error during shutdown: %v", err)
		return err
	}
	log.Infof("bridge: HTTP server stopped")
	return ctx.Err()
}
