// Package daemon hosts the voicegrab background process: the correlation
// store and resolver, the local HTTP API the browser extension talks to, the
// WebSocket event stream for retroactive resolutions, and the periodic
// eviction sweeper.
package daemon
