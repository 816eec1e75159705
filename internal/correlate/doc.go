// Package correlate reconciles voice-message observations from independent
// signal sources into one record per clip.
//
// Three signal sources (DOM element scan, network response observer, binary
// object capture) report clips asynchronously, in any order, and none of
// them carries a stable identifier linking a visible player to its
// downloadable resource. The only shared key is the clip duration, which
// each source derives and rounds independently. The Store therefore matches
// registrations by duration within a configured tolerance, merging fields
// monotonically so arrival order never changes the final record.
//
// Matching discipline: first sufficiently-close match in insertion order,
// ties broken by earliest-created record. The tolerance comparison lives in
// exactly one place (Store.IsMatch) so every caller agrees on it.
package correlate
