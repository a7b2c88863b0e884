package cache

import (
	"fmt"
	"strings"
	"time"

	"folio-api/internal/config"
)

// Namespace is the Redis key prefix for the folio application.
const Namespace = "folio"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class, useful for half/double TTL variants.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Snapshot Keys ----------------------------------------------------------

// SnapshotKey holds the latest persisted feed snapshot per asset.
func SnapshotKey(assetID string) string {
	return formatKey("snapshot", assetID)
}

// SnapshotSetKey is the set of asset ids with persisted snapshots.
func SnapshotSetKey() string {
	return formatKey("snapshot", "ids")
}

// --- Portfolio Keys ---------------------------------------------------------

// HoldingsKey caches the on-chain holdings fetch per owner.
func HoldingsKey(owner string) string {
	return formatKey("holdings", owner)
}

// PortfolioKey caches a rendered valuation payload per owner.
func PortfolioKey(owner string) string {
	return formatKey("portfolio", owner)
}

// --- Transfers Keys ---------------------------------------------------------

// TransfersRecentKey caches the 24h transfer window per owner.
func TransfersRecentKey(owner string) string {
	return formatKey("transfers", "recent", owner)
}

// --- TTL Helpers ------------------------------------------------------------

// SnapshotTTL returns the TTL for persisted snapshot payloads. Snapshots go
// stale quickly once the feed stops refreshing them.
func SnapshotTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// HoldingsTTL returns the TTL for cached on-chain holdings. Balance reads are
// the slowest dependency, so they get the longest budget.
func HoldingsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// PortfolioTTL returns the short TTL for rendered valuations; live prices
// make them stale within seconds.
func PortfolioTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// TransfersTTL returns the TTL for the cached transfer window.
func TransfersTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLMedium, 0.5) // target ~30s when medium=60s
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
