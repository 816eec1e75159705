package correlate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicegrab/internal/config"
	"voicegrab/internal/correlate"
	"voicegrab/internal/logging"
)

func newStore(t *testing.T, opts ...correlate.Option) *correlate.Store {
	t.Helper()
	cfg := config.Default()
	return correlate.NewStore(&cfg, logging.NewNop(), opts...)
}

func TestIsMatchSymmetric(t *testing.T) {
	store := newStore(t)
	durations := []int64{0, 1, 4999, 5000, 5004, 5005, 5006, 30000, 1_200_000}
	for _, a := range durations {
		for _, b := range durations {
			require.Equal(t, store.IsMatch(a, b), store.IsMatch(b, a), "a=%d b=%d", a, b)
		}
	}
	require.True(t, store.IsMatch(5000, 5005))
	require.False(t, store.IsMatch(5000, 5006))
}

func TestRegisterResourceCreatesPending(t *testing.T) {
	store := newStore(t)
	rec, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.True(t, rec.Pending)
	require.Empty(t, rec.ElementRef)
	require.Equal(t, "https://cdn.test/a", rec.DownloadURL)
}

func TestRegisterResourceIdempotent(t *testing.T) {
	store := newStore(t)
	first, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	second, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, store.Stats().Total)
}

func TestRegisterRejectsStructuralMisuse(t *testing.T) {
	store := newStore(t)
	_, err := store.RegisterResource(correlate.ResourceSignal{URL: "https://cdn.test/a"})
	require.ErrorIs(t, err, correlate.ErrMissingDuration)
	_, err = store.RegisterResource(correlate.ResourceSignal{DurationMs: 1000})
	require.ErrorIs(t, err, correlate.ErrMissingLocator)
	_, err = store.RegisterElement(correlate.ElementSignal{DurationMs: 1000})
	require.ErrorIs(t, err, correlate.ErrMissingElement)
	_, err = store.RegisterElement(correlate.ElementSignal{ElementRef: "e1"})
	require.ErrorIs(t, err, correlate.ErrMissingDuration)
	require.Equal(t, 0, store.Stats().Total, "rejected input must never be partially applied")
}

func TestOrderIndependentMerge(t *testing.T) {
	resource := correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a", LastModified: "Mon, 02 Jan 2026 15:04:05 GMT"}
	element := correlate.ElementSignal{ElementRef: "e1", DurationMs: 30002}

	elementFirst := newStore(t)
	_, err := elementFirst.RegisterElement(element)
	require.NoError(t, err)
	_, err = elementFirst.RegisterResource(resource)
	require.NoError(t, err)

	resourceFirst := newStore(t)
	_, err = resourceFirst.RegisterResource(resource)
	require.NoError(t, err)
	_, err = resourceFirst.RegisterElement(element)
	require.NoError(t, err)

	for _, store := range []*correlate.Store{elementFirst, resourceFirst} {
		require.Equal(t, 1, store.Stats().Total)
		rec, ok := store.ResolveForElement("", "e1")
		require.True(t, ok)
		require.False(t, rec.Pending)
		require.Equal(t, "https://cdn.test/a", rec.DownloadURL)
		require.Equal(t, "Mon, 02 Jan 2026 15:04:05 GMT", rec.LastModified)
		require.Equal(t, "e1", rec.ElementRef)
	}
}

func TestMonotonicEnrichment(t *testing.T) {
	store := newStore(t)
	rec, err := store.RegisterResource(correlate.ResourceSignal{
		DurationMs: 30000, URL: "https://cdn.test/a",
		LastModified: "Mon, 02 Jan 2026 15:04:05 GMT",
		BlobType:     "audio/mp4", BlobSize: 120_000,
	})
	require.NoError(t, err)

	// Later signal with only a new URL: other fields must survive.
	merged, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30001, URL: "https://cdn.test/b"})
	require.NoError(t, err)
	require.Equal(t, rec.ID, merged.ID)
	require.Equal(t, "https://cdn.test/b", merged.DownloadURL)
	require.Equal(t, "Mon, 02 Jan 2026 15:04:05 GMT", merged.LastModified)
	require.Equal(t, "audio/mp4", merged.BlobType)
	require.EqualValues(t, 120_000, merged.BlobSize)
}

func TestExplicitDurationReplacesEstimate(t *testing.T) {
	store := newStore(t)
	first, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30003, URL: "https://cdn.test/a", Estimated: true})
	require.NoError(t, err)
	require.True(t, first.Estimated)

	merged, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	require.Equal(t, first.ID, merged.ID)
	require.False(t, merged.Estimated)
	require.EqualValues(t, 30000, merged.DurationMs)
}

func TestDistinctDurationsStayDistinct(t *testing.T) {
	// 5000 vs 5010 at 5ms tolerance: two records.
	store := newStore(t)
	a, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 5000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	b, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 5010, URL: "https://cdn.test/b"})
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, store.Stats().Total)
}

func TestTabPartition(t *testing.T) {
	store := newStore(t)
	_, err := store.RegisterResource(correlate.ResourceSignal{TabID: "tab-1", DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)

	other, err := store.RegisterResource(correlate.ResourceSignal{TabID: "tab-2", DurationMs: 30000, URL: "https://cdn.test/b"})
	require.NoError(t, err)
	require.Equal(t, 2, store.Stats().Total)
	require.Equal(t, "https://cdn.test/b", other.DownloadURL)

	_, ok := store.FindByDuration("tab-3", 30000)
	require.False(t, ok)
}

func TestFindByDurationFirstMatchWins(t *testing.T) {
	store := newStore(t)
	first, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "https://cdn.test/a"})
	require.NoError(t, err)
	_, err = store.RegisterResource(correlate.ResourceSignal{DurationMs: 30010, URL: "https://cdn.test/b"})
	require.NoError(t, err)

	// 30005 is within tolerance of both; insertion order decides.
	found, ok := store.FindByDuration("", 30005)
	require.True(t, ok)
	require.Equal(t, first.ID, found.ID)
}

func TestFindPendingByDuration(t *testing.T) {
	store := newStore(t)
	_, err := store.RegisterElement(correlate.ElementSignal{ElementRef: "e1", DurationMs: 9000})
	require.NoError(t, err)

	_, ok := store.FindPendingByDuration("", 9000)
	require.False(t, ok, "element records are not pending")

	pending, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 21000, URL: "https://cdn.test/p"})
	require.NoError(t, err)
	found, ok := store.FindPendingByDuration("", 21002)
	require.True(t, ok)
	require.Equal(t, pending.ID, found.ID)
}

func TestElementReregistrationReturnsSameRecord(t *testing.T) {
	store := newStore(t)
	first, err := store.RegisterElement(correlate.ElementSignal{ElementRef: "e1", DurationMs: 12000})
	require.NoError(t, err)
	again, err := store.RegisterElement(correlate.ElementSignal{ElementRef: "e1", DurationMs: 12000})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, store.Stats().Total)
}

func TestScenarioAResourceThenElement(t *testing.T) {
	store := newStore(t)
	resource, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 30000, URL: "a"})
	require.NoError(t, err)
	element, err := store.RegisterElement(correlate.ElementSignal{ElementRef: "e1", DurationMs: 30002})
	require.NoError(t, err)
	require.Equal(t, resource.ID, element.ID)

	resolver := correlate.NewResolver(store, logging.NewNop())
	outcome, err := resolver.Resolve(correlate.ResolveRequest{ElementRef: "e1"})
	require.NoError(t, err)
	require.Equal(t, correlate.StateResolved, outcome.State)
	require.Equal(t, "a", outcome.DownloadURL)
}

func TestEvictionBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := now
	store := newStore(t, correlate.WithClock(func() time.Time { return current }))

	maxAge := time.Hour

	current = now.Add(-maxAge - time.Millisecond)
	expired, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 5000, URL: "https://cdn.test/old"})
	require.NoError(t, err)

	current = now.Add(-maxAge + time.Millisecond)
	fresh, err := store.RegisterResource(correlate.ResourceSignal{DurationMs: 90000, URL: "https://cdn.test/new"})
	require.NoError(t, err)

	current = now
	require.Equal(t, 1, store.Evict(maxAge))

	_, ok := store.Get(expired.ID)
	require.False(t, ok)
	_, ok = store.Get(fresh.ID)
	require.True(t, ok)
}

func TestEvictEmptyStoreIsNoOp(t *testing.T) {
	store := newStore(t)
	require.Equal(t, 0, store.Evict(time.Hour))
}

func TestRecordCapDropsOldest(t *testing.T) {
	cfg := config.Default()
	cfg.Store.MaxRecords = 3
	store := correlate.NewStore(&cfg, logging.NewNop())

	var first correlate.Record
	for i := 0; i < 4; i++ {
		rec, err := store.RegisterResource(correlate.ResourceSignal{
			DurationMs: int64(1000 + i*100),
			URL:        "https://cdn.test/clip",
		})
		require.NoError(t, err)
		if i == 0 {
			first = rec
		}
	}
	require.Equal(t, 3, store.Stats().Total)
	_, ok := store.Get(first.ID)
	require.False(t, ok)
}
