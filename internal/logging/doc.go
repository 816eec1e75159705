// Package logging provides slog construction and shared structured-field
// conventions for voicegrab components.
package logging
