// Package textutil provides filename helpers shared by the history archive
// and the resolution API.
package textutil
