package textutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName normalizes a filename to NFC and replaces filesystem-unsafe
// characters. Slashes, backslashes, colons, and asterisks become dashes;
// other unsafe characters are removed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SuggestedFileName derives a download filename from a resolved record's
// locator and metadata. Falls back to a timestamped name when the locator
// has no usable basename.
func SuggestedFileName(locator, lastModified string, durationMs int64) string {
	base := locatorBase(locator)
	if base != "" {
		if path.Ext(base) == "" {
			base += ".mp4"
		}
		return SanitizeFileName(base)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	if lastModified != "" {
		if parsed, err := time.Parse(time.RFC1123, lastModified); err == nil {
			stamp = parsed.UTC().Format("20060102-150405")
		}
	}
	seconds := durationMs / 1000
	return fmt.Sprintf("voice-message-%s-%ds.mp4", stamp, seconds)
}

func locatorBase(locator string) string {
	if locator == "" {
		return ""
	}
	trimmed := locator
	if parsed, err := url.Parse(locator); err == nil && parsed.Path != "" {
		trimmed = parsed.Path
	} else if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	base := path.Base(trimmed)
	if base == "." || base == "/" || base == "" {
		return ""
	}
	// Blob capture locators have no meaningful basename.
	if strings.HasPrefix(locator, "blob:") || strings.HasPrefix(locator, "data:") {
		return ""
	}
	return base
}
