// Package slug derives the stable identifiers used for every name-based
// path and identity (suppliers, products, stores).
package slug

import (
	"errors"
	"strings"
)

// ErrEmpty is returned when a slug would be empty.
var ErrEmpty = errors.New("slug: empty input")

// Slugify trims, collapses internal whitespace runs to a single hyphen and
// lowercases. Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// StoreSlug identifies a store as "<normalized-store-name>-<store-number>".
// Build one with NewStoreSlug or ParseStoreSlug, never by hand.
type StoreSlug string

// NewStoreSlug builds the identity for a store from its display name and
// number. Only the name is normalized; the number is trimmed and otherwise
// kept as entered, since existing blob paths and assignments use it verbatim.
func NewStoreSlug(storeName, storeNumber string) (StoreSlug, error) {
	name := Slugify(storeName)
	number := strings.TrimSpace(storeNumber)
	if name == "" || number == "" {
		return "", ErrEmpty
	}
	return StoreSlug(name + "-" + number), nil
}

// ParseStoreSlug accepts an already-built store identity (for example from a
// URL path). Surrounding whitespace is dropped; case is preserved because the
// number segment is case sensitive.
func ParseStoreSlug(s string) (StoreSlug, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", ErrEmpty
	}
	return StoreSlug(v), nil
}

func (s StoreSlug) String() string { return string(s) }
