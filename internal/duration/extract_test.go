package duration_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voicegrab/internal/duration"
)

var testOpts = duration.Options{
	FallbackBitrateKbps: 32,
	MinMillis:           500,
	MaxMillis:           1_200_000,
}

func TestFromDisposition(t *testing.T) {
	millis, ok := duration.FromDisposition(`attachment; filename=audioclip-1712345678901-30000.mp4`)
	require.True(t, ok)
	require.EqualValues(t, 30000, millis)
}

func TestFromDispositionUnparsable(t *testing.T) {
	for _, value := range []string{
		"",
		"attachment; filename=photo-123.jpg",
		"attachment; filename=audioclip-notdigits-30000.mp4",
		"attachment; filename=audioclip-1712345678901-x.mp4",
		"attachment; filename=audioclip-1712345678901-0.mp4",
	} {
		_, ok := duration.FromDisposition(value)
		require.False(t, ok, "value %q", value)
	}
}

func TestFromLocatorClipToken(t *testing.T) {
	millis, ok := duration.FromLocator("https://cdn.example.test/v/audioclip-1712345678901-12345.mp4?efg=abc")
	require.True(t, ok)
	require.EqualValues(t, 12345, millis)
}

func TestFromLocatorQueryParam(t *testing.T) {
	millis, ok := duration.FromLocator("https://cdn.example.test/v/clip.mp4?duration_ms=4200")
	require.True(t, ok)
	require.EqualValues(t, 4200, millis)

	millis, ok = duration.FromLocator("https://cdn.example.test/v/clip.mp4?duration=9000&x=1")
	require.True(t, ok)
	require.EqualValues(t, 9000, millis)
}

func TestFromLocatorSkipsBrokenTokenThenRecovers(t *testing.T) {
	// The first marker occurrence is malformed; scanning continues.
	millis, ok := duration.FromLocator("/a/audioclip-bad/audioclip-1712345678901-777.mp4")
	require.True(t, ok)
	require.EqualValues(t, 777, millis)
}

func TestExtractPriorityOrder(t *testing.T) {
	meta := duration.Metadata{
		Headers: map[string]string{
			"content-disposition": "attachment; filename=audioclip-1712345678901-11111.mp4",
		},
		Locator:     "https://cdn.example.test/audioclip-1712345678901-22222.mp4",
		ContentType: "audio/mp4",
		SizeBytes:   1 << 20,
	}
	result, ok := duration.Extract(meta, testOpts)
	require.True(t, ok)
	require.EqualValues(t, 11111, result.Millis, "header token outranks locator token")
	require.False(t, result.Estimated)

	meta.Headers = nil
	result, ok = duration.Extract(meta, testOpts)
	require.True(t, ok)
	require.EqualValues(t, 22222, result.Millis, "locator token outranks estimation")
	require.False(t, result.Estimated)
}

func TestExtractEstimatesFromSize(t *testing.T) {
	meta := duration.Metadata{
		Locator:     "https://cdn.example.test/clips/voice.bin",
		ContentType: "audio/mpeg",
		SizeBytes:   40960, // 40 KiB at 32 kbps -> 10s
	}
	result, ok := duration.Extract(meta, testOpts)
	require.True(t, ok)
	require.True(t, result.Estimated)
	require.EqualValues(t, 10000, result.Millis)
}

func TestExtractEstimateClamped(t *testing.T) {
	small := duration.Metadata{ContentType: "audio/mpeg", SizeBytes: 10}
	result, ok := duration.Extract(small, testOpts)
	require.True(t, ok)
	require.EqualValues(t, 500, result.Millis)

	huge := duration.Metadata{ContentType: "audio/mpeg", SizeBytes: 1 << 33}
	result, ok = duration.Extract(huge, testOpts)
	require.True(t, ok)
	require.EqualValues(t, 1_200_000, result.Millis)
}

func TestExtractRefusesNonAudio(t *testing.T) {
	meta := duration.Metadata{
		Locator:     "https://cdn.example.test/photo.jpg",
		ContentType: "image/jpeg",
		SizeBytes:   1 << 20,
	}
	_, ok := duration.Extract(meta, testOpts)
	require.False(t, ok)
}

func TestExtractMp4ContainerWithAudioHint(t *testing.T) {
	meta := duration.Metadata{
		Locator:     "https://cdn.example.test/audio/clip.mp4",
		ContentType: "video/mp4",
		SizeBytes:   40960,
	}
	result, ok := duration.Extract(meta, testOpts)
	require.True(t, ok)
	require.True(t, result.Estimated)
}

func TestEstimateFromSize(t *testing.T) {
	// 1 MiB at 128 kbps: 8 Mib / 128 kbps = 64s.
	require.EqualValues(t, 64000, duration.EstimateFromSize(1<<20, 128))
}
