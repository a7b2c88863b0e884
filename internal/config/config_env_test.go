package config

import (
	"os"
	"path/filepath"
	"testing"

	solanapkg "folio-api/pkg/chain/solana"
	"folio-api/pkg/confkit"
	feedpkg "folio-api/pkg/feed"
)

// Test_hydrateSections_withEnvAndSectionFiles verifies env expansion and
// per-section hydration without going through go-zero conf.Load.
func Test_hydrateSections_withEnvAndSectionFiles(t *testing.T) {
	dir := t.TempDir()

	// Prepare feed.yaml using env placeholders
	feedYAML := []byte(`
url: ${PRICE_FEED_URL}
reconnect: 3s
assets:
  - mintA
`)
	feedPath := filepath.Join(dir, "feed.yaml")
	if err := os.WriteFile(feedPath, feedYAML, 0o600); err != nil {
		t.Fatalf("write feed.yaml: %v", err)
	}

	// Prepare solana.yaml using env placeholders for the endpoint
	solanaYAML := []byte(`
rpc_url: ${SOLANA_RPC_URL}
commitment: confirmed
timeout: 9s
`)
	solPath := filepath.Join(dir, "solana.yaml")
	if err := os.WriteFile(solPath, solanaYAML, 0o600); err != nil {
		t.Fatalf("write solana.yaml: %v", err)
	}

	// Set envs consumed by the files above
	t.Setenv("PRICE_FEED_URL", "wss://feed.example/ws")
	t.Setenv("SOLANA_RPC_URL", "https://rpc.example")

	// Construct top-level config and hydrate sections
	cfg := &Config{
		TTL:    CacheTTL{Short: 10, Medium: 60, Long: 300},
		Feed:   confkit.Section[feedpkg.Config]{File: "feed.yaml"},
		Solana: confkit.Section[solanapkg.Config]{File: "solana.yaml"},
	}
	cfg.baseDir = dir
	if err := cfg.hydrateSections(); err != nil {
		t.Fatalf("hydrateSections: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Feed.Value == nil {
		t.Fatalf("Feed.Value not hydrated")
	}
	if got := cfg.Feed.Value.URL; got != "wss://feed.example/ws" {
		t.Fatalf("Feed.URL not expanded, got %q", got)
	}
	if got := cfg.Feed.Value.Reconnect.String(); got != "3s" {
		t.Fatalf("Feed.Reconnect not parsed, got %s", got)
	}

	if cfg.Solana.Value == nil {
		t.Fatalf("Solana.Value not hydrated")
	}
	if got := cfg.Solana.Value.RPCURL; got != "https://rpc.example" {
		t.Fatalf("Solana.RPCURL not expanded, got %q", got)
	}
	if got := cfg.Solana.Value.Timeout.String(); got != "9s" {
		t.Fatalf("Solana.Timeout not parsed, got %s", got)
	}
}
