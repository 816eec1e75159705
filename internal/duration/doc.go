// Package duration derives voice-clip durations from resource metadata.
//
// Extraction tries, in order: an explicit duration token in a
// Content-Disposition style header, the same token in the resource locator,
// and finally a byte-size estimate at an assumed bitrate. All functions are
// pure and never return errors; unparsable input simply yields no result.
package duration
