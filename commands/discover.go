package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"peershare/bridge"
	"peershare/config"
)

// RunDiscover asks the local node for everything it can see and prints the
// merged view.
func RunDiscover(ctx context.Context, cfg *config.Config) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bridgeURL(cfg, "/discover"), nil)
	if err != nil {
		log.Fatalf("Failed to build discover request: %v", err)
	}

	resp, err := bridgeClient(cfg).Do(req)
	if err != nil {
		log.Fatalf("Discover failed (is the node serving?): %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Discover failed: %s", resp.Status)
	}

	var out bridge.DiscoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("Failed to decode discover response: %v", err)
	}

	log.Infof("Discovered %d resources", len(out.Resources))
	for _, r := range out.Resources {
		log.Infof("  %s (%s) @ %s, created %s", r.Name, r.Kind, r.Origin, r.CreatedAt.Format(time.RFC3339))
	}
	for _, p := range out.Failed {
		log.Warnf("Peer %s did not answer", p)
	}
}
