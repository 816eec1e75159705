package correlate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"voicegrab/internal/correlate"
)

func TestSeenSetMark(t *testing.T) {
	seen := correlate.NewSeenSet(nil)
	require.True(t, seen.Mark("element|tab-1|e1"))
	require.False(t, seen.Mark("element|tab-1|e1"))
	require.True(t, seen.Seen("element|tab-1|e1"))
	require.False(t, seen.Seen("element|tab-1|e2"))
	require.Equal(t, 1, seen.Len())
}

func TestSeenSetEvict(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := now
	seen := correlate.NewSeenSet(func() time.Time { return current })

	seen.Mark("resource|https://cdn.test/a")
	current = now.Add(30 * time.Minute)
	seen.Mark("resource|https://cdn.test/b")

	current = now.Add(90 * time.Minute)
	require.Equal(t, 1, seen.Evict(time.Hour))
	require.False(t, seen.Seen("resource|https://cdn.test/a"))
	require.True(t, seen.Seen("resource|https://cdn.test/b"))
}
