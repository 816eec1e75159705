package duration

import (
	"math"
	"strconv"
	"strings"
)

// clipToken marks the filename pattern voice clips are served under:
// audioclip-<epoch-ms>-<duration-ms>.<ext>. The duration is the second
// numeric group after the marker.
const clipToken = "audioclip-"

// durationParams lists query parameters that carry an explicit duration.
var durationParams = []string{"duration_ms", "duration"}

// Metadata describes what a registrar observed about a resource.
type Metadata struct {
	// Headers is the response header bag as observed by the network hook.
	// Lookup is case-insensitive.
	Headers map[string]string
	// Locator is the resource URL or blob identifier.
	Locator string
	// ContentType is the declared content kind, when known.
	ContentType string
	// SizeBytes is the declared or observed content length, when known.
	SizeBytes int64
}

// Options bound the byte-size estimation fallback.
type Options struct {
	FallbackBitrateKbps int
	MinMillis           int64
	MaxMillis           int64
}

// Result is a derived duration in milliseconds. Estimated is true when the
// value came from the byte-size fallback rather than an explicit token.
type Result struct {
	Millis    int64
	Estimated bool
}

// Extract derives a duration from resource metadata, trying header token,
// locator token, then byte-size estimation. The second return is false when
// no source yielded a usable duration.
func Extract(meta Metadata, opts Options) (Result, bool) {
	if millis, ok := FromDisposition(dispositionHeader(meta.Headers)); ok {
		return Result{Millis: millis}, true
	}
	if millis, ok := FromLocator(meta.Locator); ok {
		return Result{Millis: millis}, true
	}
	if looksLikeAudio(meta) && meta.SizeBytes > 0 && opts.FallbackBitrateKbps > 0 {
		millis := EstimateFromSize(meta.SizeBytes, opts.FallbackBitrateKbps)
		millis = clamp(millis, opts.MinMillis, opts.MaxMillis)
		return Result{Millis: millis, Estimated: true}, true
	}
	return Result{}, false
}

// FromDisposition parses a duration token out of a disposition-style header
// value, e.g. `attachment; filename=audioclip-1712345678901-30000.mp4`.
func FromDisposition(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	return scanClipToken(value)
}

// FromLocator parses a duration token out of the resource locator: the
// audioclip filename pattern first, then an explicit query parameter.
func FromLocator(locator string) (int64, bool) {
	if locator == "" {
		return 0, false
	}
	if millis, ok := scanClipToken(locator); ok {
		return millis, true
	}
	return scanQueryParam(locator)
}

// EstimateFromSize converts a byte count to milliseconds at the given
// bitrate: size * 8 / (kbps * 1024) seconds.
func EstimateFromSize(sizeBytes int64, bitrateKbps int) int64 {
	seconds := float64(sizeBytes) * 8 / (float64(bitrateKbps) * 1024)
	return int64(math.Round(seconds * 1000))
}

func scanClipToken(s string) (int64, bool) {
	rest := s
	for {
		idx := strings.Index(rest, clipToken)
		if idx < 0 {
			return 0, false
		}
		rest = rest[idx+len(clipToken):]

		// First numeric group is the epoch timestamp.
		epochEnd := digitSpan(rest)
		if epochEnd == 0 || epochEnd >= len(rest) || rest[epochEnd] != '-' {
			continue
		}
		after := rest[epochEnd+1:]
		durEnd := digitSpan(after)
		if durEnd == 0 {
			continue
		}
		millis, err := strconv.ParseInt(after[:durEnd], 10, 64)
		if err != nil || millis <= 0 {
			continue
		}
		return millis, true
	}
}

func scanQueryParam(locator string) (int64, bool) {
	query := locator
	if idx := strings.IndexByte(locator, '?'); idx >= 0 {
		query = locator[idx+1:]
	}
	for _, part := range strings.Split(query, "&") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		for _, param := range durationParams {
			if key != param {
				continue
			}
			end := digitSpan(value)
			if end == 0 {
				continue
			}
			millis, err := strconv.ParseInt(value[:end], 10, 64)
			if err != nil || millis <= 0 {
				continue
			}
			return millis, true
		}
	}
	return 0, false
}

func digitSpan(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func looksLikeAudio(meta Metadata) bool {
	kind := strings.ToLower(strings.TrimSpace(meta.ContentType))
	if kind == "" {
		kind = strings.ToLower(strings.TrimSpace(headerValue(meta.Headers, "Content-Type")))
	}
	if strings.HasPrefix(kind, "audio/") {
		return true
	}
	// Voice clips are served as mp4 containers on some platforms.
	if strings.HasPrefix(kind, "video/mp4") && strings.Contains(strings.ToLower(meta.Locator), "audio") {
		return true
	}
	return false
}

func dispositionHeader(headers map[string]string) string {
	return headerValue(headers, "Content-Disposition")
}

func headerValue(headers map[string]string, name string) string {
	if len(headers) == 0 {
		return ""
	}
	if value, ok := headers[name]; ok {
		return value
	}
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

func clamp(value, min, max int64) int64 {
	if min > 0 && value < min {
		return min
	}
	if max > 0 && value > max {
		return max
	}
	return value
}
