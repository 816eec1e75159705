// Package history persists an audit trail of completed voice-message
// resolutions backed by SQLite.
//
// The correlation store itself is process-lifetime in-memory; history only
// records the downloads a user actually resolved, so the CLI can list them
// after the fact. Entries are pruned on the daemon's sweep schedule.
package history
