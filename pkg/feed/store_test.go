package feed

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	sets [][]string
}

func (r *recordingSink) SetSubscriptions(assetIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = append(r.sets, append([]string(nil), assetIDs...))
}

func (r *recordingSink) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sets) == 0 {
		return nil
	}
	return r.sets[len(r.sets)-1]
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

func TestStoreInterestDrivesSink(t *testing.T) {
	store := NewStore()
	sink := &recordingSink{}
	store.Bind(sink)
	require.Equal(t, 1, sink.count(), "bind pushes the initial empty set")

	h1 := store.EnsureInterest("b")
	assert.Equal(t, []string{"b"}, sink.last())

	h2 := store.EnsureInterest("a")
	assert.Equal(t, []string{"a", "b"}, sink.last())

	// Second observer of an already-subscribed asset: no push.
	h3 := store.EnsureInterest("b")
	assert.Equal(t, 3, sink.count())
	assert.Equal(t, 2, store.InterestCount("b"))

	// 2→1 does not shrink the set.
	h3.Release()
	assert.Equal(t, 3, sink.count())

	// 1→0 does.
	h1.Release()
	assert.Equal(t, []string{"a"}, sink.last())

	h2.Release()
	assert.Empty(t, sink.last())
}

func TestInterestReleaseIsIdempotent(t *testing.T) {
	store := NewStore()
	h := store.EnsureInterest("a")
	other := store.EnsureInterest("a")

	h.Release()
	h.Release()
	h.Release()

	assert.Equal(t, 1, store.InterestCount("a"), "double release must not steal the other handle's interest")
	other.Release()
	assert.Zero(t, store.InterestCount("a"))
}

func TestReleaseInterestFloorsAtZero(t *testing.T) {
	store := NewStore()
	store.ReleaseInterest("never-acquired")
	assert.Zero(t, store.InterestCount("never-acquired"))

	h := store.EnsureInterest("a")
	h.Release()
	store.ReleaseInterest("a")
	assert.Zero(t, store.InterestCount("a"))
}

func TestSnapshotsSurviveInterestDrop(t *testing.T) {
	store := NewStore()
	h := store.EnsureInterest("a")
	store.SetSnapshot("a", &Snapshot{ID: "a"})
	h.Release()

	snap, ok := store.Latest("a")
	require.True(t, ok, "cached snapshot outlives interest")
	assert.Equal(t, "a", snap.ID)
}

func TestSetSnapshotLastWriteWins(t *testing.T) {
	store := NewStore()
	first := &Snapshot{ID: "a", Name: "first"}
	second := &Snapshot{ID: "a", Name: "second"}
	store.SetSnapshot("a", first)
	store.SetSnapshot("a", second)

	snap, ok := store.Latest("a")
	require.True(t, ok)
	assert.Equal(t, "second", snap.Name)

	store.SetSnapshot("a", nil)
	snap, _ = store.Latest("a")
	assert.Equal(t, "second", snap.Name, "nil snapshots are ignored")
}

func TestLatestAll(t *testing.T) {
	store := NewStore()
	store.SetSnapshot("a", &Snapshot{ID: "a"})
	store.SetSnapshot("b", &Snapshot{ID: "b"})

	got := store.LatestAll([]string{"a", "b", "missing"})
	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.NotContains(t, got, "missing")
}

func TestApplyRoutesUpdates(t *testing.T) {
	store := NewStore()
	store.Apply(&PriceUpdate{AssetID: "a", Snapshot: &Snapshot{ID: "a"}})
	_, ok := store.Latest("a")
	assert.True(t, ok)

	store.Apply(nil)
}

func TestWatchAndCancel(t *testing.T) {
	store := NewStore()
	var seen []string
	cancel := store.Watch(func(assetID string, snap *Snapshot) {
		seen = append(seen, assetID)
	})

	store.SetSnapshot("a", &Snapshot{ID: "a"})
	cancel()
	store.SetSnapshot("b", &Snapshot{ID: "b"})

	assert.Equal(t, []string{"a"}, seen)
}

func TestStoreConcurrentInterest(t *testing.T) {
	store := NewStore()
	store.Bind(&recordingSink{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := store.EnsureInterest("a")
			h.Release()
		}()
	}
	wg.Wait()

	assert.Zero(t, store.InterestCount("a"))
	assert.Empty(t, store.InterestSet())
}
