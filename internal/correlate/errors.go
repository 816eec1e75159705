package correlate

import "errors"

// Structural misuse is rejected synchronously at the call boundary; a
// registration that fails validation is never partially applied. Business
// non-matches are not errors.
var (
	ErrMissingDuration = errors.New("registration requires a positive duration")
	ErrMissingLocator  = errors.New("resource registration requires a locator")
	ErrMissingElement  = errors.New("element registration requires an element reference")
	ErrEmptyResolve    = errors.New("resolution requires an element reference or a duration")
)
