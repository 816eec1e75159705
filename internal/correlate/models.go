package correlate

import "time"

// Record is the unit of correlation: everything known about one voice
// message, merged across signal sources.
type Record struct {
	// ID is assigned at first observation, by whichever signal arrives first.
	ID string
	// TabID partitions records by originating browser tab. Durations never
	// match across tabs.
	TabID string
	// DurationMs is the fuzzy correlation key. Always set.
	DurationMs int64
	// DownloadURL is empty until a network or binary signal contributes it.
	DownloadURL string
	// LastModified is auxiliary metadata used for filename generation.
	LastModified string
	// BlobType and BlobSize are set only by the binary-capture path.
	BlobType string
	BlobSize int64
	// ElementRef is an opaque reference owned by the extension side; the
	// store never assumes anything about element lifetime.
	ElementRef string
	// CreatedAt drives eviction.
	CreatedAt time.Time
	// Pending is true while a resource-side record has no matching element.
	Pending bool
	// Estimated is true when DurationMs came from byte-size estimation.
	Estimated bool
}

// Resolvable reports whether the record can satisfy a download request.
func (r Record) Resolvable() bool {
	return r.DownloadURL != ""
}

// ElementSignal is what the element registrar knows about a clip.
type ElementSignal struct {
	TabID      string
	ElementRef string
	DurationMs int64
}

// ResourceSignal is what the network or binary registrar knows about a clip.
type ResourceSignal struct {
	TabID        string
	URL          string
	LastModified string
	BlobType     string
	BlobSize     int64
	DurationMs   int64
	Estimated    bool
}

// Stats summarizes store contents for diagnostics.
type Stats struct {
	Total      int
	Pending    int
	Resolvable int
}

// Clock supplies the package's notion of now. Tests substitute fixed clocks.
type Clock func() time.Time
