package feed

import (
	"sort"
	"sync"
)

// SubscriptionSink receives the full interest set whenever it changes. The
// Transport satisfies this, but tests and coordinators can substitute their
// own implementation.
type SubscriptionSink interface {
	SetSubscriptions(assetIDs []string)
}

// Watcher observes snapshot replacements.
type Watcher func(assetID string, snap *Snapshot)

// Store is the process-wide cache of the latest snapshot per asset, plus the
// reference-counted interest that drives the upstream subscription set.
// Snapshots survive interest dropping to zero so a returning consumer can be
// seeded with the prior value immediately.
type Store struct {
	mu        sync.Mutex
	snapshots map[string]*Snapshot
	interest  map[string]int
	watchers  map[int]Watcher
	nextWatch int
	sink      SubscriptionSink
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]*Snapshot),
		interest:  make(map[string]int),
		watchers:  make(map[int]Watcher),
	}
}

// Bind attaches the subscription sink and pushes the current interest set so
// sink and store agree from the start.
func (s *Store) Bind(sink SubscriptionSink) {
	s.mu.Lock()
	s.sink = sink
	ids := s.interestSetLocked()
	s.mu.Unlock()
	if sink != nil {
		sink.SetSubscriptions(ids)
	}
}

// Interest is the release-once capability returned by EnsureInterest.
// Releasing twice (or from multiple exit paths) decrements only once.
type Interest struct {
	store *Store
	id    string
	once  sync.Once
}

// AssetID reports the asset this handle holds interest in.
func (h *Interest) AssetID() string {
	return h.id
}

// Release drops this handle's interest. Safe to call multiple times.
func (h *Interest) Release() {
	h.once.Do(func() {
		h.store.ReleaseInterest(h.id)
	})
}

// EnsureInterest increments the interest count for the asset. A 0→1
// transition grows the subscription set pushed to the sink. Interest from
// independent consumers composes additively: many observers of the same asset
// share one upstream subscription.
func (s *Store) EnsureInterest(assetID string) *Interest {
	s.mu.Lock()
	s.interest[assetID]++
	first := s.interest[assetID] == 1
	var ids []string
	if first {
		ids = s.interestSetLocked()
	}
	sink := s.sink
	s.mu.Unlock()

	if first && sink != nil {
		sink.SetSubscriptions(ids)
	}
	return &Interest{store: s, id: assetID}
}

// ReleaseInterest decrements the interest count, flooring at zero under
// unbalanced calls. A 1→0 transition shrinks the pushed subscription set; the
// cached snapshot stays so a later EnsureInterest is seeded immediately.
func (s *Store) ReleaseInterest(assetID string) {
	s.mu.Lock()
	count, ok := s.interest[assetID]
	if !ok || count == 0 {
		s.mu.Unlock()
		return
	}
	count--
	last := count == 0
	if last {
		delete(s.interest, assetID)
	} else {
		s.interest[assetID] = count
	}
	var ids []string
	if last {
		ids = s.interestSetLocked()
	}
	sink := s.sink
	s.mu.Unlock()

	if last && sink != nil {
		sink.SetSubscriptions(ids)
	}
}

// InterestCount reports the current count for one asset.
func (s *Store) InterestCount(assetID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interest[assetID]
}

// InterestSet returns the sorted set of assets with interest > 0.
func (s *Store) InterestSet() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interestSetLocked()
}

func (s *Store) interestSetLocked() []string {
	ids := make([]string, 0, len(s.interest))
	for id := range s.interest {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Latest returns the most recent snapshot for the asset, if any.
func (s *Store) Latest(assetID string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[assetID]
	return snap, ok
}

// LatestAll returns the current snapshot per asset for the given ids.
func (s *Store) LatestAll(assetIDs []string) map[string]*Snapshot {
	out := make(map[string]*Snapshot, len(assetIDs))
	s.mu.Lock()
	for _, id := range assetIDs {
		if snap, ok := s.snapshots[id]; ok {
			out[id] = snap
		}
	}
	s.mu.Unlock()
	return out
}

// SetSnapshot stores the snapshot as the latest for the asset (last write
// wins) and notifies watchers. Nil snapshots are ignored.
func (s *Store) SetSnapshot(assetID string, snap *Snapshot) {
	if snap == nil || assetID == "" {
		return
	}
	s.mu.Lock()
	s.snapshots[assetID] = snap
	watchers := make([]Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(assetID, snap)
	}
}

// Apply routes transport updates into the store; it matches UpdateHandler so
// a Store can be handed to NewTransport directly.
func (s *Store) Apply(update *PriceUpdate) {
	if update == nil {
		return
	}
	s.SetSnapshot(update.AssetID, update.Snapshot)
}

// Watch registers a change observer and returns its cancel function.
func (s *Store) Watch(w Watcher) (cancel func()) {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = w
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}
