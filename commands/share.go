package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"peershare/bridge"
	"peershare/config"
)

// bridgeURL builds an endpoint URL on the running node's HTTP bridge.
func bridgeURL(cfg *config.Config, path string) string {
	return fmt.Sprintf("http://%s%s", cfg.Bridge.ListenAddress, path)
}

func bridgeClient(cfg *config.Config) *http.Client {
	// A discover round waits up to the per-peer timeout, give it slack.
	return &http.Client{Timeout: cfg.PeerTimeout() + 5*time.Second}
}

// RunShare registers a resource with the local node via its bridge.
func RunShare(ctx context.Context, cfg *config.Config, name, kind string) {
	body, err := json.Marshal(bridge.ShareRequest{Name: name, Kind: kind})
	if err != nil {
		log.Fatalf("Failed to encode share request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bridgeURL(cfg, "/share"), bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to build share request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := bridgeClient(cfg).Do(req)
	if err != nil {
		log.Fatalf("Share failed (is the node serving?): %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Share failed: %s", resp.Status)
	}

	var out bridge.ShareResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("Failed to decode share response: %v", err)
	}

	log.Info(out.Message)
	log.Infof("Sharing %q (%s) as %s", out.Resource.Name, out.Resource.Kind, out.Resource.Origin)
}
