package feed

import "context"

// Persistence hooks let the ingestion side mirror validated snapshots into
// external stores. The in-memory Store never depends on these.
type Persistence interface {
	// RecordSnapshot persists the latest snapshot for one asset.
	RecordSnapshot(ctx context.Context, assetID string, snap *Snapshot) error
}
