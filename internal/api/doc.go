// Package api defines the wire contracts between the browser extension and
// the voicegrab daemon, and validates inbound payloads against embedded
// JSON Schemas before they reach the correlation store.
package api
